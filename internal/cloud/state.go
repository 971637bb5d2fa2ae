// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package cloud

import (
	"context"

	"cloud.google.com/go/pubsub"
	"cloud.google.com/go/storage"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ServiceClients is the dependency injection container holding every external
// connection the pipeline uses: GCS, Pub/Sub, Postgres, the vision model, and
// the music model. It is built once at startup and shared by the API handlers
// and the workflows.
type ServiceClients struct {
	StorageClient   *storage.Client
	PubsubClient    *pubsub.Client
	DatabasePool    *pgxpool.Pool
	PubSubListeners map[string]*PubSubListener
	VisionModels    map[string]*QuotaAwareVisionModel
	MusicModels     map[string]*QuotaAwareMusicModel
}

// Close releases all client connections. Useful in tests and for controlled
// shutdowns; in the server the root context normally manages lifecycle.
func (c *ServiceClients) Close() {
	_ = c.StorageClient.Close()
	_ = c.PubsubClient.Close()
	c.DatabasePool.Close()
}

// NewCloudServiceClients initializes every external client from the loaded
// configuration. Listener commands are attached later, once the workflows
// have been assembled.
func NewCloudServiceClients(ctx context.Context, config *Config) (clients *ServiceClients, err error) {
	sc, err := storage.NewClient(ctx)
	if err != nil {
		return nil, err
	}

	pc, err := pubsub.NewClient(ctx, config.Application.GoogleProjectId)
	if err != nil {
		return nil, err
	}

	poolConfig, err := pgxpool.ParseConfig(config.Database.DSN)
	if err != nil {
		return nil, err
	}
	if config.Database.MaxConns > 0 {
		poolConfig.MaxConns = config.Database.MaxConns
	}
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, err
	}

	subscriptions := make(map[string]*PubSubListener)
	for subKey := range config.TopicSubscriptions {
		values := config.TopicSubscriptions[subKey]
		actual, err := NewPubSubListener(pc, values.Name, nil)
		if err != nil {
			return nil, err
		}
		subscriptions[subKey] = actual
	}

	visionModels := make(map[string]*QuotaAwareVisionModel)
	for vmKey := range config.VisionModels {
		visionModels[vmKey] = NewQuotaAwareVisionModel(config.VisionModels[vmKey])
	}

	musicModels := make(map[string]*QuotaAwareMusicModel)
	for mmKey := range config.MusicModels {
		model, err := NewQuotaAwareMusicModel(ctx, config.Application.GoogleProjectId, config.MusicModels[mmKey])
		if err != nil {
			return nil, err
		}
		musicModels[mmKey] = model
	}

	clients = &ServiceClients{
		StorageClient:   sc,
		PubsubClient:    pc,
		DatabasePool:    pool,
		PubSubListeners: subscriptions,
		VisionModels:    visionModels,
		MusicModels:     musicModels,
	}

	return clients, err
}

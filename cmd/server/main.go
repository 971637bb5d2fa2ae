// Copyright 2024 Google, LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	https://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package main is the entry point for the video scoring backend server.
//
// The application runs a Gin web server exposing a REST API for video
// uploads, video and generation lookups, music generation, and stock-track
// search. It is instrumented with OpenTelemetry for logging, tracing, and
// metrics.
//
// Alongside the API the server runs a Pub/Sub listener on the video upload
// bucket's notification topic. New uploads trigger the ingestion workflow,
// which samples frames and persists the video; a later API call runs the
// music generation workflow against the stored frames.
package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/h2non/filetype"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/gitalabs/gcp-go-video-score/internal/core/commands"
	"github.com/gitalabs/gcp-go-video-score/internal/core/cor"
	"github.com/gitalabs/gcp-go-video-score/internal/core/model"
	"github.com/gitalabs/gcp-go-video-score/internal/telemetry"
)

// main wires up logging, telemetry, configuration, cloud clients, the HTTP
// routes, and the background listeners, then serves until interrupted.
func main() {
	telemetry.SetupLogging()
	slog.Info("Logging initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := GetConfig()
	if err := config.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	_, err := telemetry.SetupOpenTelemetry(ctx, config)
	if err != nil {
		slog.Error("Failed to setup OpenTelemetry", "error", err)
		log.Fatal(err)
	}
	slog.Info("Tracing initialized")

	InitState(ctx)
	slog.Info("Initialized State")

	r := gin.Default()

	// Every incoming request gets a server span.
	r.Use(otelgin.Middleware("video-score-server"))

	// Permissive CORS keeps local frontend development simple.
	r.Use(cors.Default())

	apiV1 := r.Group("/api/v1")
	{
		VideoRouter(apiV1)
		FileUpload(apiV1)
		TrackRouter(apiV1)
		apiV1.GET("/health", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"status": "ok"})
		})
	}

	srv := &http.Server{
		Addr:         ":8080",
		Handler:      r,
		ReadTimeout:  20 * time.Second,
		WriteTimeout: 20 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("failed to listen: ", "error", err)
		}
	}()
	slog.Info("Server Ready on port 8080")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("Shutdown Server ...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server Shutdown Failed:", "error", err)
	}

	log.Println("Server exiting")
}

// VideoRouter sets up the video-related API routes.
//
// Endpoints:
//   - GET /videos/:id: Retrieves a video row by its ID.
//   - GET /videos/:id/stream: Generates a time-limited signed URL for streaming.
//   - POST /videos/:id/generations: Runs the music generation workflow.
//   - GET /videos/:id/generations: Lists the generation attempts for a video.
func VideoRouter(r *gin.RouterGroup) {
	videos := r.Group("/videos")
	{
		// Handler for GET /videos/:id
		videos.GET("/:id", func(c *gin.Context) {
			id := c.Param("id")
			out, err := state.videoService.GetVideo(c, id)
			if err != nil {
				c.Status(http.StatusNotFound)
				return
			}
			c.JSON(http.StatusOK, out)
		})

		// Handler for GET /videos/:id/stream
		// Returns a signed URL valid for 15 minutes so clients can stream
		// the source video without the bucket being public.
		videos.GET("/:id/stream", func(c *gin.Context) {
			id := c.Param("id")
			video, err := state.videoService.GetVideo(c, id)
			if err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
				return
			}

			bucket, object, ok := strings.Cut(strings.TrimPrefix(video.StorageURL, "gs://"), "/")
			if !ok {
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Malformed storage path"})
				return
			}
			signedURL, err := state.cloud.StorageClient.Bucket(bucket).SignedURL(object, &storage.SignedURLOptions{
				Scheme:  storage.SigningSchemeV4,
				Method:  http.MethodGet,
				Expires: time.Now().Add(15 * time.Minute),
			})
			if err != nil {
				log.Printf("Error generating signed URL: %v", err)
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Could not generate streaming URL"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"url": signedURL})
		})

		// Handler for POST /videos/:id/generations
		// Runs the full generation chain synchronously: frame load, vision
		// analysis, prompt gate, music generation, mux, and upload. The
		// request body may carry a custom prompt that replaces the vision
		// analysis as the seed text.
		videos.POST("/:id/generations", func(c *gin.Context) {
			id := c.Param("id")
			if _, err := state.videoService.GetVideo(c, id); err != nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "Video not found"})
				return
			}

			var req model.GenerationRequest
			if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
				c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
				return
			}

			chainCtx := cor.NewBaseContext()
			defer chainCtx.Close()
			chainCtx.SetContext(c.Request.Context())
			chainCtx.Add(cor.CtxIn, id)
			if len(strings.TrimSpace(req.Prompt)) > 0 {
				chainCtx.Add(commands.GetCustomPromptName(), req.Prompt)
			}

			state.musicWorkflow.Execute(chainCtx)

			gen, _ := chainCtx.Get(commands.GetGenerationName()).(*model.MusicGeneration)
			if chainCtx.HasErrors() {
				for _, e := range chainCtx.GetErrors() {
					log.Printf("generation error for video %s: %v\n", id, e)
				}
				c.JSON(http.StatusInternalServerError, gin.H{"error": "Generation failed", "generation": gen})
				return
			}
			c.JSON(http.StatusOK, gen)
		})

		// Handler for GET /videos/:id/generations
		videos.GET("/:id/generations", func(c *gin.Context) {
			id := c.Param("id")
			out, err := state.generationService.ListByVideo(c, id)
			if err != nil {
				log.Printf("Error listing generations for video %s: %v\n", id, err)
				c.Status(http.StatusInternalServerError)
				return
			}
			c.JSON(http.StatusOK, out)
		})
	}
}

// TrackRouter sets up the stock-music search route.
func TrackRouter(r *gin.RouterGroup) {
	// Handler for POST /search-music
	r.POST("/search-music", func(c *gin.Context) {
		var req model.SearchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		results := state.trackService.Search(req.Query)
		c.JSON(http.StatusOK, gin.H{"tracks": results})
	})
}

// FileUpload sets up the video upload route.
//
// POST /uploads accepts multipart/form-data with one or more files under the
// "files" field. Each file is sniffed to confirm it is a video, staged on
// local disk, and copied to the upload bucket. The bucket notification then
// triggers the ingestion workflow through Pub/Sub.
func FileUpload(r *gin.RouterGroup) {
	upload := r.Group("/uploads")
	{
		// Handler for POST /uploads
		upload.POST("", func(c *gin.Context) {
			form, err := c.MultipartForm()
			if err != nil {
				c.String(http.StatusBadRequest, "get form err: %s", err.Error())
				return
			}
			files := form.File["files"]
			bucket := state.cloud.StorageClient.Bucket(state.config.Storage.VideoBucket)

			for _, file := range files {
				localPath := filepath.Join(os.TempDir(), file.Filename)
				if err := c.SaveUploadedFile(file, localPath); err != nil {
					c.String(http.StatusBadRequest, "upload file err: %s", err.Error())
					return
				}

				content, err := os.ReadFile(localPath)
				if err != nil {
					log.Println(err)
					c.Status(http.StatusInternalServerError)
					return
				}

				// Reject files whose magic bytes say they are not video.
				if !filetype.IsVideo(content) {
					_ = os.Remove(localPath)
					c.String(http.StatusBadRequest, "file %s is not a video", file.Filename)
					return
				}

				wc := bucket.Object(file.Filename).NewWriter(c)
				wc.ContentType = "video/mp4"
				if _, err = wc.Write(content); err != nil {
					c.String(http.StatusInternalServerError, "write file to bucket err: %s", err.Error())
					return
				}
				if err := wc.Close(); err != nil {
					log.Printf("failed to close bucket handle: %v\n", err)
				}
				if err := os.Remove(localPath); err != nil {
					log.Printf("failed to remove file from server: %v\n", err)
				}
			}
			c.String(http.StatusOK, "Uploaded successfully %d files.", len(files))
		})
	}
}

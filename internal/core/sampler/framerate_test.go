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

package sampler

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// ffprobe reports frame rates as rationals; NTSC rates divide to
// non-integer values.
func TestParseFrameRate(t *testing.T) {
	fps, err := parseFrameRate("30000/1001")
	assert.NoError(t, err)
	assert.InDelta(t, 29.97, fps, 0.01)

	fps, err = parseFrameRate("25/1")
	assert.NoError(t, err)
	assert.Equal(t, 25.0, fps)

	fps, err = parseFrameRate("24")
	assert.NoError(t, err)
	assert.Equal(t, 24.0, fps)
}

func TestParseFrameRateRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "abc", "0/0", "30/0", "-25/1", "0"} {
		_, err := parseFrameRate(raw)
		assert.Error(t, err, "raw %q", raw)
	}
}

// Copyright 2025 Kaspeak Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package payload

import (
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
)

// ZstdCompressionLevel is the zstd level used for payload data
const ZstdCompressionLevel = 3

var (
	zstdEncoder   *zstd.Encoder
	zstdDecoder   *zstd.Decoder
	zstdInitErr   error
	zstdSetupOnce sync.Once
)

// The encoder and decoder are safe for concurrent use with EncodeAll and
// DecodeAll, so we share a single instance of each
func zstdSetup() {
	zstdSetupOnce.Do(func() {
		zstdEncoder, zstdInitErr = zstd.NewWriter(
			nil,
			zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(ZstdCompressionLevel)),
		)
		if zstdInitErr != nil {
			return
		}
		zstdDecoder, zstdInitErr = zstd.NewReader(nil)
	})
}

// Compress replaces the payload data with its zstd-compressed form. Empty
// data is left as-is
func (p *Payload) Compress() error {
	if len(p.Data) == 0 {
		return nil
	}
	zstdSetup()
	if zstdInitErr != nil {
		return fmt.Errorf("zstd compression error: %w", zstdInitErr)
	}
	p.Data = zstdEncoder.EncodeAll(p.Data, nil)
	return nil
}

// Decompress replaces the payload data with its zstd-decompressed form. Empty
// data is left as-is
func (p *Payload) Decompress() error {
	if len(p.Data) == 0 {
		return nil
	}
	zstdSetup()
	if zstdInitErr != nil {
		return fmt.Errorf("zstd decompression error: %w", zstdInitErr)
	}
	decompressed, err := zstdDecoder.DecodeAll(p.Data, nil)
	if err != nil {
		return fmt.Errorf("zstd decompression error: %w", err)
	}
	p.Data = decompressed
	return nil
}

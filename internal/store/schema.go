// Copyright 2026 The SprayDryFS Authors.
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

package store

// DefaultFixedChunking and DefaultCRC32Chunking are the seeded rehydrate
// configurations' chunking specs, and DefaultCodec their codec spec, per
// spec.md §6.
const (
	DefaultFixedChunking = "fixed size:0x2000"
	DefaultCRC32Chunking = "crc32 cutoff:0x000a0000 initializer:0xfacade00 max:0x4000 min:0x0800"
	DefaultCodec         = "nocompress"
)

var createStatements = []string{
	`CREATE TABLE IF NOT EXISTS rehydrate (
		id INTEGER PRIMARY KEY
		, name TEXT NOT NULL
		, version TEXT NOT NULL
		, chunking TEXT NOT NULL
		, algorithm TEXT NOT NULL
		, data BLOB NOT NULL
		, UNIQUE (name, version)
	)`,
	`INSERT OR IGNORE INTO rehydrate (id, name, version, chunking, algorithm, data)
	 VALUES
		(0, 'nocompress-fixed', '1', '` + DefaultFixedChunking + `', '` + DefaultCodec + `', X'')
		, (1, 'nocompress-crc32', '1', '` + DefaultCRC32Chunking + `', '` + DefaultCodec + `', X'')`,
	`CREATE TABLE IF NOT EXISTS chunkhash (
		id INTEGER PRIMARY KEY
		, rehydrate INTEGER NOT NULL
			REFERENCES rehydrate (id)
			ON DELETE CASCADE
		, size INTEGER NOT NULL
		, data BLOB NOT NULL
		, UNIQUE (id, rehydrate, size)
		, UNIQUE (rehydrate, data)
	)`,
	`CREATE TABLE IF NOT EXISTS chunk (
		id INTEGER PRIMARY KEY
			REFERENCES chunkhash (id)
			ON DELETE CASCADE
		, data BLOB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS file (
		id INTEGER PRIMARY KEY
		, hash BLOB NOT NULL
		, rehydrate INTEGER NOT NULL
			REFERENCES rehydrate (id)
			ON DELETE CASCADE
		, UNIQUE (hash, rehydrate)
	)`,
	`CREATE TABLE IF NOT EXISTS content (
		file INTEGER NOT NULL
			REFERENCES file (id)
			ON DELETE CASCADE
		, rehydrate INTEGER NOT NULL
			REFERENCES rehydrate (id)
			ON DELETE CASCADE
		, offset INTEGER NOT NULL
		, size INTEGER NOT NULL
		, chunk INTEGER NOT NULL
			REFERENCES chunk (id)
			ON DELETE RESTRICT
		, PRIMARY KEY (file, rehydrate, offset)
		, FOREIGN KEY (chunk, rehydrate, size)
			REFERENCES chunkhash (id, rehydrate, size)
			ON DELETE RESTRICT
	) WITHOUT ROWID`,
	`CREATE TABLE IF NOT EXISTS entry (
		id INTEGER PRIMARY KEY
		, directory INTEGER NOT NULL
			REFERENCES file (id)
		, name BLOB NOT NULL
		, isdirectory BOOL NOT NULL
		, mode BLOB NOT NULL
		, size INTEGER NOT NULL
		, file INTEGER NOT NULL
			REFERENCES file (id)
		, UNIQUE (directory, name)
	)`,
	`CREATE TABLE IF NOT EXISTS root (
		id INTEGER PRIMARY KEY
		, name TEXT NOT NULL
		, version TEXT NOT NULL
		, isdirectory BOOL NOT NULL
		, mode BLOB NOT NULL
		, size INTEGER NOT NULL
		, file INTEGER NOT NULL
			REFERENCES file (id)
		, UNIQUE (name, version)
	)`,
}

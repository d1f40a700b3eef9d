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

// Package sdferrors declares the error kinds that flow between the
// storage, ingest, and read-side packages and the FUSE translation layer.
package sdferrors

import (
	"fmt"

	"github.com/pkg/errors"
)

// ConfigError reports a malformed spec string, a missing required
// parameter, or a reference to an unknown algorithm.
type ConfigError struct {
	Detail string
	Cause  error
}

func (e *ConfigError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config error: %s: %v", e.Detail, e.Cause)
	}
	return fmt.Sprintf("config error: %s", e.Detail)
}

func (e *ConfigError) Unwrap() error { return e.Cause }

// NewConfigError wraps detail and an optional cause into a *ConfigError.
func NewConfigError(detail string, cause error) *ConfigError {
	return &ConfigError{Detail: detail, Cause: cause}
}

// DuplicateRoot reports that a root (name, version) pair already exists.
type DuplicateRoot struct {
	Name    string
	Version string
}

func (e *DuplicateRoot) Error() string {
	return fmt.Sprintf("root already exists: name=%q version=%q", e.Name, e.Version)
}

// DuplicateFile reports that a final file hash collided with an existing
// row. Recovered locally by the ingestor, which never returns it: Root
// only attaches it to its log output when the ingested root's content
// matches an existing row.
type DuplicateFile struct {
	Hash       string
	ExistingID int64
}

func (e *DuplicateFile) Error() string {
	return fmt.Sprintf("duplicate file: hash=%q existing_id=%d", e.Hash, e.ExistingID)
}

// UnsupportedFileType reports a non-regular, non-directory entry
// encountered while walking a source tree.
type UnsupportedFileType struct {
	Path string
	Mode string
}

func (e *UnsupportedFileType) Error() string {
	return fmt.Sprintf("unsupported file type: %s (mode %s)", e.Path, e.Mode)
}

// IntegrityError reports that decoded data failed to match the
// recorded size, a stored hash is malformed, or a chunk row is missing
// for a chunkhash row. It is fatal for the read operation in progress.
type IntegrityError struct {
	Detail string
	Cause  error
}

func (e *IntegrityError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("integrity error: %s: %v", e.Detail, e.Cause)
	}
	return fmt.Sprintf("integrity error: %s", e.Detail)
}

func (e *IntegrityError) Unwrap() error { return e.Cause }

// NewIntegrityError wraps detail and an optional cause into an *IntegrityError.
func NewIntegrityError(detail string, cause error) *IntegrityError {
	return &IntegrityError{Detail: detail, Cause: cause}
}

// NotFound reports a missing root, entry, or inode during a read
// operation. The FS bridge converts this to ENOENT.
type NotFound struct {
	Kind string
	Key  string
}

func (e *NotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Key)
}

// AccessDenied reports a write-intent flag passed to a read-only open.
// The FS bridge converts this to EACCES.
type AccessDenied struct {
	Detail string
}

func (e *AccessDenied) Error() string {
	return fmt.Sprintf("access denied: %s", e.Detail)
}

// StoreError wraps an underlying SQL failure. It carries a stack trace
// via github.com/pkg/errors so failures surfaced from deep call chains
// remain diagnosable.
func StoreError(context string, cause error) error {
	if cause == nil {
		return nil
	}
	return errors.Wrap(cause, "store error: "+context)
}

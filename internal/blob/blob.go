// Package blob re-exports the blob storage abstractions and selects a driver
// from the environment.
package blob

import (
	"context"
	"fmt"
	"os"

	"oystercult/internal/blob/core"
	fsblob "oystercult/internal/infra/blob/fs"
	memblob "oystercult/internal/infra/blob/memory"
	s3blob "oystercult/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// SignedURLOptions configures URL pre-signing.
	SignedURLOptions = core.SignedURLOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	// DriverFilesystem is the local filesystem driver.
	DriverFilesystem = core.DriverFilesystem
	// DriverS3 is the S3-compatible driver.
	DriverS3 = core.DriverS3
	// DriverMemory is the in-memory test driver.
	DriverMemory = core.DriverMemory
)

// ErrUnsupported indicates an operation isn't supported by a driver.
var ErrUnsupported = core.ErrUnsupported

// Open selects a blob.Store implementation using environment variables.
//
//	OYSTERCULT_BLOB_DRIVER: fs|s3|memory (default fs)
//	OYSTERCULT_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	(S3 specific variables documented in the s3 driver)
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv("OYSTERCULT_BLOB_DRIVER")
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		root := os.Getenv("OYSTERCULT_BLOB_FS_ROOT")
		return fsblob.New(root)
	case DriverS3:
		return s3blob.OpenFromEnv(ctx)
	case DriverMemory:
		return memblob.New(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

// Package blobstore provides storage backends for archived projection runs.
//
// BlobStore is the interface for reading and writing named immutable blobs.
// Implementations must be safe for concurrent use.
//
// # Built-in Implementations
//
//   - MemoryStore: in-process map, for tests and ephemeral servers
//   - LocalStore: local filesystem, atomic rename on Put and mmap on Open
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//   - s3.CommitStore: s3.Store plus a DynamoDB-backed CURRENT pointer
//   - minio.Store: MinIO and other S3-compatible services
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
//
// Blobs that are backed by memory can implement Mappable so that ReadAll
// skips the ReadAt round trip.
package blobstore

// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("embedviz/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	runs := archive.New(store)
//
// Multiple processes archiving into the same prefix should use a CommitStore,
// which moves the CURRENT pointer into DynamoDB:
//
//	store, err := s3.OpenCommitStore(ctx, "my-bucket", "embedviz-commits")
//
// # Features
//
//   - Range reads for partial fetches
//   - Multipart uploads for large archives, single PutObject with CRC32C otherwise
//   - Automatic pagination for listing
//   - Configurable prefix for multi-tenant isolation
package s3

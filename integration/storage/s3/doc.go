// Package s3 reads result artifacts from Amazon S3 or an S3-compatible service.
//
// It implements storage.Storage on top of aws-sdk-go-v2 with GetObject for
// downloads and HeadObject for existence checks. SDK errors are classified
// into the storage error values (ErrFileNotFound, ErrAccessDenied,
// ErrBucketNotFound and so on), so HTTP handlers treat both backends alike.
//
//	store, err := s3.New(ctx, s3.Config{
//		Bucket: "results",
//		Region: "eu-central-1",
//		Prefix: "pdf",
//	})
//	if err != nil {
//		return err
//	}
//	rc, info, err := store.Open(ctx, "ahmed-rahman.pdf")
//
// For MinIO set Endpoint and ForcePathStyle:
//
//	cfg := s3.Config{
//		Bucket:         "results",
//		Region:         "us-east-1",
//		Endpoint:       "http://localhost:9000",
//		AccessKeyID:    "minioadmin",
//		SecretKey:      "minioadmin",
//		ForcePathStyle: true,
//	}
//
// Keys are validated with storage.CleanKey before any request is made.
package s3

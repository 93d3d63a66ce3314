// Package s3 reads constraint documents from Amazon S3 and S3-compatible
// services (MinIO, DigitalOcean Spaces, Wasabi).
//
// Source implements ingest.Source: List pages through ListObjectsV2 under a
// key prefix and keeps keys named constraints_<dataset>.json or .yaml;
// Fetch downloads one object with GetObject.
//
//	cfg := s3.Config{
//		Bucket: "istat-constraints",
//		Region: "eu-south-1",
//		Prefix: "constraints/",
//	}
//	src, err := s3.New(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	in := ingest.New(src, reg, ingest.WithPrune(true))
//
// MinIO:
//
//	cfg := s3.Config{
//		Bucket:         "constraints",
//		Region:         "us-east-1",
//		AccessKeyID:    "minioadmin",
//		SecretKey:      "minioadmin",
//		Endpoint:       "http://localhost:9000",
//		ForcePathStyle: true,
//	}
//
// SDK errors are classified into ErrNotFound, ErrBucketNotFound,
// ErrAccessDenied, ErrTimeout, ErrCanceled and ErrUnavailable.
package s3

// Package bookshare provides the domain model and service for a
// book-sharing application: authenticated users upload a PDF book
// together with a cover image, both files are pushed to a blob store,
// and a book record referencing the resulting URLs is persisted.
//
// The package defines pluggable interfaces for persistence (Repository)
// and blob storage (BlobStore). Implementations live in the repo/ and
// storage/ subpackages; HTTP handlers live in the api subpackage.
package bookshare

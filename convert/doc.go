// Package convert re-encodes image files between raster formats.
//
// Discover lists the input files, a Scheduler runs one Task per file on a
// bounded worker pool through a Codec, and Summarize folds the resulting
// Outcomes into a Summary. Per-file failures stay inside their Outcome and
// never stop the batch.
//
// Supported formats: JPG/JPEG, PNG, GIF, BMP, WEBP and AVIF.
package convert

package storage

import "stopfrisk/models"

// ReportWriter is the interface any export backend must satisfy.
type ReportWriter interface {
	WriteReport(r *models.Report) error
	Close() error
}

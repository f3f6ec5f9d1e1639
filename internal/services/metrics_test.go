package services

import (
	"context"
	"errors"
	"testing"

	"toursite-backend-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedCount(n int) CountFunc {
	return func(context.Context) (int, error) { return n, nil }
}

func TestDashboardSummary(t *testing.T) {
	d := Dashboard{
		BookingsByStatus: func(context.Context) (map[models.BookingStatus]int, error) {
			return map[models.BookingStatus]int{models.BookingPending: 3}, nil
		},
		Packages:     fixedCount(4),
		BlogPosts:    fixedCount(7),
		GalleryItems: fixedCount(12),
		Subscribers:  fixedCount(40),
		DiskPath:     "/data",
		Sample: func(path string) HostSample {
			return HostSample{DiskTotalBytes: int64(len(path))}
		},
	}

	summary, err := d.Summary(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, summary.Bookings[models.BookingPending])
	assert.Equal(t, 4, summary.Packages)
	assert.Equal(t, 7, summary.BlogPosts)
	assert.Equal(t, 12, summary.GalleryItems)
	assert.Equal(t, 40, summary.Subscribers)
	assert.Equal(t, int64(5), summary.Host.DiskTotalBytes)
}

func TestDashboardSummaryPropagatesErrors(t *testing.T) {
	d := Dashboard{
		Packages: func(context.Context) (int, error) { return 0, ErrStorage(errors.New("down")) },
		Sample:   func(string) HostSample { return HostSample{} },
	}
	_, err := d.Summary(context.Background())
	assert.True(t, IsKind(err, KindStorage))
}

func TestCaptureHostFallsBackToRoot(t *testing.T) {
	sample := CaptureHost("/definitely/not/a/mount")
	assert.False(t, sample.CapturedAt.IsZero())
}

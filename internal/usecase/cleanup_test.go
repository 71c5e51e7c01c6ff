package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/semmidev/mongobak/internal/domain"
	"github.com/semmidev/mongobak/internal/infrastructure/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCleanup(t *testing.T) {
	Convey("Given a Cleanup use case", t, func() {
		now := time.Date(2025, 3, 14, 3, 0, 0, 0, time.UTC)
		artifacts := &fakeArtifacts{}
		store := &fakeStore{objects: []domain.ObjectInfo{
			{Key: "backups/aaaa1111-nightscout_20250101_020000_x.tar.gz", LastModified: now.AddDate(0, 0, -72)},
			{Key: "backups/bbbb2222-nightscout_20250310_020000_y.tar.gz", LastModified: now.AddDate(0, 0, -4)},
			{Key: "backups/cccc3333-nightscout_20250105_020000_z.tar.gz"},
			{Key: "backups/dddd4444-manual.tar.gz"},
		}}

		newCleanup := func(retentionDays int) *Cleanup {
			uc := NewCleanup(artifacts, store, "backups/", 5, retentionDays, logger.NewNop())
			uc.now = func() time.Time { return now }
			return uc
		}

		Convey("When retention is disabled", func() {
			err := newCleanup(0).Execute(context.Background())

			Convey("It should only prune local archives", func() {
				So(err, ShouldBeNil)
				So(artifacts.pruned, ShouldResemble, []string{"*.tar.*"})
				So(artifacts.pruneKeep, ShouldEqual, 5)
				So(store.deleted, ShouldBeEmpty)
			})
		})

		Convey("When local retention is set to zero", func() {
			uc := NewCleanup(artifacts, store, "backups/", 0, 0, logger.NewNop())
			err := uc.Execute(context.Background())

			Convey("It should still keep the newest archive", func() {
				So(err, ShouldBeNil)
				So(artifacts.pruneKeep, ShouldEqual, 1)
			})
		})

		Convey("When retention is 30 days", func() {
			err := newCleanup(30).Execute(context.Background())

			Convey("It should delete remote backups older than the cutoff", func() {
				So(err, ShouldBeNil)
				So(store.deleted, ShouldResemble, []string{
					"backups/aaaa1111-nightscout_20250101_020000_x.tar.gz",
					"backups/cccc3333-nightscout_20250105_020000_z.tar.gz",
				})
			})
		})

		Convey("When one remote delete fails", func() {
			store.deleteErr = map[string]error{
				"backups/aaaa1111-nightscout_20250101_020000_x.tar.gz": errors.New("AccessDenied"),
			}
			err := newCleanup(30).Execute(context.Background())

			Convey("It should continue with the rest", func() {
				So(err, ShouldBeNil)
				So(store.deleted, ShouldResemble, []string{"backups/cccc3333-nightscout_20250105_020000_z.tar.gz"})
			})
		})

		Convey("When listing and pruning both fail", func() {
			store.listErr = errors.New("NoSuchBucket")
			artifacts.pruneErr = errors.New("permission denied")
			err := newCleanup(30).Execute(context.Background())

			Convey("It should report both failures", func() {
				So(err, ShouldNotBeNil)
				So(err.Error(), ShouldContainSubstring, "NoSuchBucket")
				So(err.Error(), ShouldContainSubstring, "permission denied")
			})
		})
	})
}

func TestExtractTimestamp(t *testing.T) {
	Convey("Given archive names", t, func() {
		ts, err := extractTimestamp("backups/1a2b3c4d-nightscout_20250314_020005_abcdef12.tar.br")
		So(err, ShouldBeNil)
		So(ts, ShouldEqual, time.Date(2025, 3, 14, 2, 0, 5, 0, time.UTC))

		_, err = extractTimestamp("manual.tar.gz")
		So(err, ShouldNotBeNil)
	})
}

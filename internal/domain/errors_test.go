package domain

import (
	"errors"
	"fmt"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestError(t *testing.T) {
	Convey("Given a classified error", t, func() {
		cause := errors.New("AccessDenied: Access Denied")
		err := &Error{Kind: KindStorage, Op: "upload", Message: "failed to upload to S3", Code: "AccessDenied", Err: cause}

		Convey("Error should include the operation and code", func() {
			So(err.Error(), ShouldEqual, "upload: failed to upload to S3 (code AccessDenied)")
		})

		Convey("It should unwrap to the cause", func() {
			So(errors.Is(err, cause), ShouldBeTrue)
		})

		Convey("IsKind should see through wrapping", func() {
			wrapped := fmt.Errorf("nightly run: %w", err)
			So(IsKind(wrapped, KindStorage), ShouldBeTrue)
			So(IsKind(wrapped, KindArtifactIO), ShouldBeFalse)
			So(IsKind(cause, KindStorage), ShouldBeFalse)
		})

		Convey("A DNS failure should also be a connection failure", func() {
			dns := NewError(KindDNS, "connect", "no such host", nil)
			So(IsKind(dns, KindConnection), ShouldBeTrue)
			So(IsKind(NewError(KindConnection, "", "refused", nil), KindDNS), ShouldBeFalse)
		})

		Convey("An empty message should fall back to the cause", func() {
			So(NewError(KindArtifactIO, "", "", cause).Error(), ShouldEqual, cause.Error())
		})
	})
}

func TestParseCompression(t *testing.T) {
	Convey("Given compression names", t, func() {
		for in, want := range map[string]Compression{"": Gzip, "gzip": Gzip, "GZIP": Gzip, " brotli ": Brotli} {
			got, err := ParseCompression(in)
			So(err, ShouldBeNil)
			So(got, ShouldEqual, want)
		}

		_, err := ParseCompression("zstd")
		So(err, ShouldNotBeNil)

		So(Gzip.Extension(), ShouldEqual, ".gz")
		So(Brotli.Extension(), ShouldEqual, ".br")
		So(Brotli.String(), ShouldEqual, "brotli")
	})
}

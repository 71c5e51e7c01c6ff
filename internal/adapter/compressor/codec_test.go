package compressor

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/semmidev/mongobak/internal/domain"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCodec(t *testing.T) {
	Convey("Given a Codec", t, func() {
		codec := New()
		tempDir, err := os.MkdirTemp("", "codec_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		inputContent := []byte(strings.Repeat(`{"_id":"5f1","sgv":120,"direction":"Flat","type":"sgv"}`+"\n", 2000))
		inputPath := filepath.Join(tempDir, "dump.tar")
		So(os.WriteFile(inputPath, inputContent, 0644), ShouldBeNil)

		for _, method := range []domain.Compression{domain.Gzip, domain.Brotli} {
			method := method

			Convey("Compress with "+method.String(), func() {
				outputPath := inputPath + method.Extension()
				size, err := codec.Compress(inputPath, outputPath, method)

				Convey("It should shrink the input and report the written size", func() {
					So(err, ShouldBeNil)
					info, err := os.Stat(outputPath)
					So(err, ShouldBeNil)
					So(size, ShouldEqual, info.Size())
					So(size, ShouldBeLessThan, int64(len(inputContent)))
				})

				Convey("It should round trip to the exact input", func() {
					So(err, ShouldBeNil)
					restored := filepath.Join(tempDir, "restored.tar")
					So(codec.Decompress(outputPath, restored, method), ShouldBeNil)

					content, err := os.ReadFile(restored)
					So(err, ShouldBeNil)
					So(bytes.Equal(content, inputContent), ShouldBeTrue)
				})
			})
		}

		Convey("Gzip output is readable by the standard gzip reader", func() {
			outputPath := inputPath + ".gz"
			_, err := codec.Compress(inputPath, outputPath, domain.Gzip)
			So(err, ShouldBeNil)

			f, err := os.Open(outputPath)
			So(err, ShouldBeNil)
			defer f.Close()

			reader, err := gzip.NewReader(f)
			So(err, ShouldBeNil)
			var out bytes.Buffer
			_, err = out.ReadFrom(reader)
			So(err, ShouldBeNil)
			So(out.Bytes(), ShouldResemble, inputContent)
		})

		Convey("When the source file does not exist", func() {
			_, err := codec.Compress(filepath.Join(tempDir, "nonexistent.tar"), inputPath+".gz", domain.Gzip)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "failed to open source file")
		})

		Convey("When the destination path is invalid", func() {
			_, err := codec.Compress(inputPath, "/invalid/path/output.gz", domain.Gzip)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "failed to create dest file")
		})

		Convey("When the method is unknown", func() {
			_, err := codec.Compress(inputPath, inputPath+".zz", domain.Compression(42))
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "unsupported compression method")
		})

		Convey("When decompressing a file that is not gzip", func() {
			err := codec.Decompress(inputPath, filepath.Join(tempDir, "out"), domain.Gzip)
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "failed to create gzip reader")
		})
	})
}

func TestFormatSize(t *testing.T) {
	Convey("Given FormatSize", t, func() {
		Convey("It renders binary units with two decimals", func() {
			So(FormatSize(0), ShouldEqual, "0.00 B")
			So(FormatSize(512), ShouldEqual, "512.00 B")
			So(FormatSize(1024), ShouldEqual, "1.00 KiB")
			So(FormatSize(1536), ShouldEqual, "1.50 KiB")
			So(FormatSize(5*1024*1024), ShouldEqual, "5.00 MiB")
			So(FormatSize(3*1024*1024*1024), ShouldEqual, "3.00 GiB")
		})

		Convey("It moves to the next unit when rounding reaches 1024", func() {
			So(FormatSize(1023), ShouldEqual, "1023.00 B")
			So(FormatSize(1048575), ShouldEqual, "1.00 MiB")
			So(FormatSize(1024*1024*1024-1), ShouldEqual, "1.00 GiB")
			So(FormatSize(1048064), ShouldEqual, "1023.50 KiB")
		})

		Convey("It is monotonic across unit boundaries", func() {
			sizes := []int64{1, 1023, 1024, 1025, 1 << 20, 1<<20 + 1, 1 << 30, 1 << 40}
			prev := int64(-1)
			for _, n := range sizes {
				parsed, err := ParseSize(FormatSize(n))
				So(err, ShouldBeNil)
				So(parsed, ShouldBeGreaterThanOrEqualTo, prev)
				prev = parsed
			}
		})

		Convey("Formatted sizes parse back to the same order of magnitude", func() {
			for _, n := range []int64{1024, 123456, 98765432, 5 << 30} {
				parsed, err := ParseSize(FormatSize(n))
				So(err, ShouldBeNil)
				So(float64(parsed), ShouldAlmostEqual, float64(n), float64(n)/100)
			}
		})
	})

	Convey("Given ParseSize", t, func() {
		Convey("It accepts config style sizes", func() {
			n, err := ParseSize("512MiB")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 512*1024*1024)

			n, err = ParseSize("")
			So(err, ShouldBeNil)
			So(n, ShouldEqual, 0)
		})

		Convey("It rejects garbage", func() {
			_, err := ParseSize("lots")
			So(err, ShouldNotBeNil)
			So(err.Error(), ShouldContainSubstring, "invalid size")
		})
	})
}

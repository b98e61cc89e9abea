package hashing

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"io"
	"os"

	"github.com/maksimkurb/keen-route/src/internal/utils"
)

type ChecksumProvider interface {
	GetChecksum() (string, error)
}

// ChecksumWriter calculates the MD5 checksum of everything written to it.
type ChecksumWriter struct {
	checksum hash.Hash
	size     int64
}

func NewMD5Writer() *ChecksumWriter {
	return &ChecksumWriter{checksum: md5.New()}
}

func (w *ChecksumWriter) Write(p []byte) (int, error) {
	n, err := w.checksum.Write(p)
	w.size += int64(n)
	return n, err
}

// Size returns the number of bytes written.
func (w *ChecksumWriter) Size() int64 {
	return w.size
}

func (w *ChecksumWriter) GetChecksum() (string, error) {
	return hex.EncodeToString(w.checksum.Sum(nil)), nil
}

// ChecksumReaderProxy calculates the MD5 checksum of data as it is read.
type ChecksumReaderProxy struct {
	reader   io.Reader
	checksum hash.Hash
	err      error
}

func NewMD5ReaderProxy(reader io.Reader) *ChecksumReaderProxy {
	return &ChecksumReaderProxy{reader: reader, checksum: md5.New()}
}

func (p *ChecksumReaderProxy) Read(buf []byte) (int, error) {
	n, err := p.reader.Read(buf)
	if n > 0 {
		if _, werr := p.checksum.Write(buf[:n]); werr != nil {
			p.err = werr
			return n, werr
		}
	}
	if err != nil && err != io.EOF {
		p.err = err
	}
	return n, err
}

// GetChecksum returns the checksum of the data read so far, or the first
// read error.
func (p *ChecksumReaderProxy) GetChecksum() (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return hex.EncodeToString(p.checksum.Sum(nil)), nil
}

// Checksum returns the MD5 checksum of data.
func Checksum(data []byte) string {
	sum := md5.Sum(data)
	return hex.EncodeToString(sum[:])
}

// FileChecksum returns the MD5 checksum of the file at path.
func FileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer utils.CloseOrWarn(f)

	proxy := NewMD5ReaderProxy(f)
	if _, err := io.Copy(io.Discard, proxy); err != nil {
		return "", err
	}
	return proxy.GetChecksum()
}

package archive

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"io"
	"io/fs"
	"path"
	"strings"

	"github.com/lowrydr/tapline/internal/errs"
	"github.com/lowrydr/tapline/internal/logger"
)

// Kind is one supported archive container. The set is closed: the pipeline
// passes kinds in priority order rather than sniffing content.
type Kind int

const (
	Zip Kind = iota
	TarGz
)

func (k Kind) String() string {
	switch k {
	case Zip:
		return "zip"
	case TarGz:
		return "tar.gz"
	default:
		return "unknown"
	}
}

// KindForName maps an asset filename onto its archive kind.
func KindForName(name string) (Kind, bool) {
	switch {
	case strings.HasSuffix(name, ".zip"):
		return Zip, true
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return TarGz, true
	default:
		return 0, false
	}
}

// defaultMode is applied when the container did not carry usable Unix
// permission bits (ZIPs built on Windows, for instance).
const defaultMode fs.FileMode = 0o755

// Executable is an extracted binary plus the permission bits to install
// it with. Mode always carries executable bits.
type Executable struct {
	Name string
	Data []byte
	Mode fs.FileMode
}

type member struct {
	name string
	mode fs.FileMode
	open func() (io.ReadCloser, error)
}

// ExtractExecutable pulls the target executable out of archiveData. The
// target is the member named wantName if present, else the single member
// bearing executable permission bits.
func ExtractExecutable(archiveData []byte, kind Kind, wantName string) (*Executable, error) {
	var members []member
	var err error
	switch kind {
	case Zip:
		members, err = zipMembers(archiveData)
	case TarGz:
		members, err = tarGzMembers(archiveData)
	default:
		return nil, errs.New(errs.ArchiveError, "unsupported archive kind %d", int(kind))
	}
	if err != nil {
		return nil, err
	}
	return pick(members, kind, wantName)
}

func pick(members []member, kind Kind, wantName string) (*Executable, error) {
	var chosen *member
	for i := range members {
		if path.Base(members[i].name) == wantName {
			chosen = &members[i]
			break
		}
	}
	if chosen == nil {
		var execs []*member
		for i := range members {
			if members[i].mode&0o111 != 0 {
				execs = append(execs, &members[i])
			}
		}
		switch len(execs) {
		case 1:
			chosen = execs[0]
		case 0:
			return nil, errs.New(errs.ArchiveError, "no executable entry found in %s archive", kind)
		default:
			return nil, errs.New(errs.ArchiveError, "%d executable entries in %s archive, none named %q", len(execs), kind, wantName)
		}
	}

	rc, err := chosen.open()
	if err != nil {
		return nil, errs.Wrap(errs.ArchiveError, err, "failed to open archive member %s", chosen.name)
	}
	defer func() {
		if cerr := rc.Close(); cerr != nil {
			logger.Debug("close archive member %s: %v", chosen.name, cerr)
		}
	}()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, errs.Wrap(errs.ArchiveError, err, "failed to read archive member %s", chosen.name)
	}
	if len(data) == 0 {
		return nil, errs.New(errs.ArchiveError, "archive member %s is empty", chosen.name)
	}

	mode := chosen.mode
	if mode&0o111 == 0 {
		mode = defaultMode
	}
	return &Executable{Name: path.Base(chosen.name), Data: data, Mode: mode}, nil
}

func zipMembers(data []byte) ([]member, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, errs.Wrap(errs.ArchiveError, err, "not a valid zip archive")
	}
	members := make([]member, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		members = append(members, member{
			name: f.Name,
			mode: f.Mode(),
			open: f.Open,
		})
	}
	return members, nil
}

func tarGzMembers(data []byte) ([]member, error) {
	gz, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, errs.Wrap(errs.ArchiveError, err, "not a valid gzip stream")
	}
	defer func() {
		if cerr := gz.Close(); cerr != nil {
			logger.Debug("close gzip reader: %v", cerr)
		}
	}()

	var members []member
	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errs.Wrap(errs.ArchiveError, err, "corrupt tar stream")
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		// tar forces full buffering: the reader is positional and invalid
		// once Next advances
		content, err := io.ReadAll(tr)
		if err != nil {
			return nil, errs.Wrap(errs.ArchiveError, err, "failed to read tar member %s", hdr.Name)
		}
		members = append(members, member{
			name: hdr.Name,
			mode: fs.FileMode(hdr.Mode),
			open: func() (io.ReadCloser, error) {
				return io.NopCloser(bytes.NewReader(content)), nil
			},
		})
	}
	return members, nil
}

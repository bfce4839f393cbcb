package bsp

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"io"
	"io/fs"
	"slices"
	"strings"
	"time"

	"github.com/klauspost/compress/zip"
)

// ArchiveMode selects what an open archive handle may do.
type ArchiveMode uint8

const (
	// ModeRead opens the existing archive. Closing leaves the body untouched.
	ModeRead ArchiveMode = iota
	// ModeUpdate loads every existing member so they can be replaced, added
	// or removed. Closing re-encodes the body.
	ModeUpdate
	// ModeCreate starts an empty archive. Closing replaces the body.
	ModeCreate
)

func (m ArchiveMode) String() string {
	switch m {
	case ModeRead:
		return "read"
	case ModeUpdate:
		return "update"
	case ModeCreate:
		return "create"
	default:
		return fmt.Sprintf("ArchiveMode(%d)", uint8(m))
	}
}

func (m ArchiveMode) mutating() bool { return m != ModeRead }

// Pakfile is the archive view of lump 40. At most one Archive handle is open
// at a time; the lump body cannot be read or laid out while it is.
type Pakfile struct {
	lump    *Lump
	archive *Archive
}

// Lump returns the lump this view belongs to.
func (p *Pakfile) Lump() *Lump { return p.lump }

// IsOpen reports whether an archive handle is open.
func (p *Pakfile) IsOpen() bool { return p.archive != nil }

// OpenArchive decodes the body as a zip archive. An empty or cleared body is
// an empty archive.
func (p *Pakfile) OpenArchive(mode ArchiveMode) (*Archive, error) {
	if p.archive != nil {
		return nil, ErrArchiveOpen
	}
	a := &Archive{pak: p, mode: mode, index: make(map[string]*Member)}
	if mode != ModeCreate && !p.lump.IsEmpty() {
		if err := a.load(p.lump.data); err != nil {
			return nil, err
		}
	}
	p.archive = a
	return a, nil
}

// CloseArchive releases the open handle. For mutating modes the members are
// encoded as stored (uncompressed) zip entries and replace the body. The
// handle is released even when encoding fails. While a member stream is open
// it returns ErrStreamOpen and the handle stays open; close the stream and
// call it again.
func (p *Pakfile) CloseArchive() error {
	a := p.archive
	if a == nil {
		return ErrArchiveNotOpen
	}
	if a.stream != nil {
		return ErrStreamOpen
	}
	p.archive = nil
	a.closed = true
	if !a.mode.mutating() {
		return nil
	}
	body, err := a.encode()
	if err != nil {
		return fmt.Errorf("encode pakfile: %w", err)
	}
	p.lump.data = body
	return nil
}

// Archive is an open pakfile handle.
type Archive struct {
	pak     *Pakfile
	mode    ArchiveMode
	members []*Member
	index   map[string]*Member
	stream  io.Closer
	closed  bool
}

// Mode returns the mode the archive was opened with.
func (a *Archive) Mode() ArchiveMode { return a.mode }

// Len returns the number of members.
func (a *Archive) Len() int { return len(a.members) }

// Members returns the members in archive order.
func (a *Archive) Members() []*Member { return slices.Clone(a.members) }

// Member looks up a member by name. Backslashes are treated as separators.
func (a *Archive) Member(name string) (*Member, error) {
	if err := a.check(); err != nil {
		return nil, err
	}
	m, ok := a.index[memberName(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}
	return m, nil
}

// Create adds an empty member. Write its content through OpenWriter.
func (a *Archive) Create(name string) (*Member, error) {
	if err := a.checkWrite(); err != nil {
		return nil, err
	}
	name = memberName(name)
	if name == "" {
		return nil, fmt.Errorf("bsp: empty archive member name")
	}
	if _, ok := a.index[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrMemberExists, name)
	}
	m := &Member{archive: a, name: name, modified: time.Now(), data: []byte{}}
	a.members = append(a.members, m)
	a.index[name] = m
	return m, nil
}

// Put creates or overwrites a member with data. It reports whether an
// existing member was replaced.
func (a *Archive) Put(name string, data []byte) (replaced bool, err error) {
	if err := a.checkWrite(); err != nil {
		return false, err
	}
	m, ok := a.index[memberName(name)]
	if !ok {
		if m, err = a.Create(name); err != nil {
			return false, err
		}
	}
	m.data = data
	m.size = int64(len(data))
	m.modified = time.Now()
	return ok, nil
}

// Remove deletes a member.
func (a *Archive) Remove(name string) error {
	if err := a.checkWrite(); err != nil {
		return err
	}
	name = memberName(name)
	m, ok := a.index[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, name)
	}
	delete(a.index, name)
	a.members = slices.DeleteFunc(a.members, func(x *Member) bool { return x == m })
	return nil
}

func (a *Archive) check() error {
	if a.closed {
		return ErrArchiveNotOpen
	}
	if a.stream != nil {
		return ErrStreamOpen
	}
	return nil
}

func (a *Archive) checkWrite() error {
	if err := a.check(); err != nil {
		return err
	}
	if !a.mode.mutating() {
		return ErrReadOnlyArchive
	}
	return nil
}

func (a *Archive) load(body []byte) error {
	zr, err := zip.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return fmt.Errorf("%w: pakfile: %v", ErrCorruptFile, err)
	}
	for _, f := range zr.File {
		m := &Member{
			archive:  a,
			name:     memberName(f.Name),
			modified: f.Modified,
			size:     int64(f.UncompressedSize64),
			file:     f,
		}
		if a.mode == ModeUpdate {
			if m.data, err = readMember(f); err != nil {
				return err
			}
			m.file = nil
		}
		if _, dup := a.index[m.name]; dup {
			return fmt.Errorf("%w: pakfile: duplicate member %s", ErrCorruptFile, m.name)
		}
		a.members = append(a.members, m)
		a.index[m.name] = m
	}
	return nil
}

func (a *Archive) encode() ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, m := range a.members {
		data := m.data
		if m.file != nil {
			var err error
			if data, err = readMember(m.file); err != nil {
				return nil, err
			}
		}
		fh := &zip.FileHeader{
			Name:               m.name,
			Method:             zip.Store,
			CRC32:              crc32.ChecksumIEEE(data),
			CompressedSize64:   uint64(len(data)),
			UncompressedSize64: uint64(len(data)),
		}
		// CreateRaw leaves the DOS timestamp fields to the caller.
		fh.SetModTime(m.modified)
		w, err := zw.CreateRaw(fh)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", m.name, err)
		}
		if _, err := w.Write(data); err != nil {
			return nil, fmt.Errorf("%s: %w", m.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func readMember(f *zip.File) ([]byte, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: pakfile member %s: %v", ErrCorruptFile, f.Name, err)
	}
	defer func() { _ = rc.Close() }()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w: pakfile member %s: %v", ErrCorruptFile, f.Name, err)
	}
	return data, nil
}

func memberName(name string) string {
	return strings.TrimLeft(strings.ReplaceAll(name, `\`, "/"), "/")
}

// Member is one named entry of an open archive.
type Member struct {
	archive  *Archive
	name     string
	modified time.Time
	size     int64

	// Read-mode members stream from file; all others hold their content.
	file *zip.File
	data []byte
}

func (m *Member) Name() string        { return m.name }
func (m *Member) Size() int64         { return m.size }
func (m *Member) Modified() time.Time { return m.modified }
func (m *Member) Archive() *Archive   { return m.archive }

// Open returns a stream over the member content. It must be closed before the
// archive is used again.
func (m *Member) Open() (io.ReadCloser, error) {
	a := m.archive
	if err := a.check(); err != nil {
		return nil, err
	}
	var r io.Reader
	var closer io.Closer
	if m.file != nil {
		rc, err := m.file.Open()
		if err != nil {
			return nil, fmt.Errorf("%w: pakfile member %s: %v", ErrCorruptFile, m.name, err)
		}
		r, closer = rc, rc
	} else {
		r = bytes.NewReader(m.data)
	}
	s := &memberReader{archive: a, r: r, closer: closer}
	a.stream = s
	return s, nil
}

// OpenWriter returns a stream that replaces the member content when closed.
func (m *Member) OpenWriter() (io.WriteCloser, error) {
	a := m.archive
	if err := a.checkWrite(); err != nil {
		return nil, err
	}
	s := &memberWriter{archive: a, member: m}
	a.stream = s
	return s, nil
}

type memberReader struct {
	archive *Archive
	r       io.Reader
	closer  io.Closer
	done    bool
}

func (s *memberReader) Read(p []byte) (int, error) {
	if s.done {
		return 0, fs.ErrClosed
	}
	return s.r.Read(p)
}

func (s *memberReader) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.archive.stream = nil
	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}

type memberWriter struct {
	archive *Archive
	member  *Member
	buf     bytes.Buffer
	done    bool
}

func (s *memberWriter) Write(p []byte) (int, error) {
	if s.done {
		return 0, fs.ErrClosed
	}
	return s.buf.Write(p)
}

func (s *memberWriter) Close() error {
	if s.done {
		return nil
	}
	s.done = true
	s.archive.stream = nil
	s.member.data = s.buf.Bytes()
	s.member.size = int64(len(s.member.data))
	s.member.modified = time.Now()
	return nil
}

package strengthmap

import (
	"bytes"
	"testing"
)

// FuzzRead checks that Read never panics and that whatever it accepts
// survives a Write/Read cycle.
func FuzzRead(f *testing.F) {
	if data, err := sampleMap().MarshalBinary(); err == nil {
		f.Add(data)
	}
	one := &Map{Rows: 1, Cols: 1, BaseLevel: 63, Indices: []uint8{3}}
	if data, err := one.MarshalBinary(); err == nil {
		f.Add(data)
	}
	f.Add([]byte("CDSM\x01\x09\x00\x00\x00\x04\x00\x00\x00\x04\x00\x00"))
	f.Add([]byte{})

	f.Fuzz(func(t *testing.T, data []byte) {
		m, err := Read(bytes.NewReader(data))
		if err != nil {
			return
		}
		if len(m.Indices) != m.Rows*m.Cols {
			t.Fatalf("%d indices for %dx%d superblocks", len(m.Indices), m.Rows, m.Cols)
		}
		var buf bytes.Buffer
		if err := m.Write(&buf); err != nil {
			t.Fatalf("Write of an accepted map: %v", err)
		}
		got, err := Read(&buf)
		if err != nil {
			t.Fatalf("re-Read: %v", err)
		}
		if got.Rows != m.Rows || got.Cols != m.Cols || got.BaseLevel != m.BaseLevel || !bytes.Equal(got.Indices, m.Indices) {
			t.Fatalf("re-Read = %+v, want %+v", got, m)
		}
	})
}

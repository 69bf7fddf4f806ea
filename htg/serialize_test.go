package htg

import (
	"bytes"
	"testing"
)

func TestSerializeData(t *testing.T) {
	data := []byte("This is some test data that should compress a little: aaaaaaaaaaaaaaaaaaaaaa")

	for _, compression := range []Compression{Uncompressed, Snappy, Zstd} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			s, err := SerializeData(data, compression, checksum)
			if err != nil {
				t.Fatalf("SerializeData(%s, %s): %v", compression, checksum, err)
			}
			if len(s) == 0 {
				t.Fatalf("SerializeData(%s, %s) returned empty output", compression, checksum)
			}

			returned, gotCompression, err := DeserializeData(s, true)
			if err != nil {
				t.Fatalf("DeserializeData(%s, %s): %v", compression, checksum, err)
			}
			if gotCompression != compression {
				t.Errorf("Expected stored compression %s, got %s", compression, gotCompression)
			}
			if !bytes.Equal(returned, data) {
				t.Errorf("Bad round trip with %s, %s: got %q", compression, checksum, returned)
			}
		}
	}
}

func TestSerializeObject(t *testing.T) {
	type payload struct {
		Title  string
		Counts []int
	}
	obj := payload{
		Title:  "leaf depth scalars",
		Counts: []int{3, 1, 4, 1, 5, 9, 2, 6},
	}

	s, err := Serialize(obj, Snappy, CRC32)
	if err != nil {
		t.Fatalf("Serialize: %v", err)
	}

	var returned payload
	if err := Deserialize(s, &returned); err != nil {
		t.Fatalf("Deserialize: %v", err)
	}
	if returned.Title != obj.Title || len(returned.Counts) != len(obj.Counts) {
		t.Errorf("Bad object round trip: got %v", returned)
	}
	for i, c := range obj.Counts {
		if returned.Counts[i] != c {
			t.Errorf("Counts[%d]: expected %d, got %d", i, c, returned.Counts[i])
		}
	}
}

func TestChecksumCatchesCorruption(t *testing.T) {
	data := []byte("some bytes we care about")
	s, err := SerializeData(data, Snappy, CRC32)
	if err != nil {
		t.Fatalf("SerializeData: %v", err)
	}

	// Flip a bit past the format and checksum prefix.
	s[len(s)-1] ^= 0x04
	if _, _, err := DeserializeData(s, true); err == nil {
		t.Errorf("Expected checksum error after corrupting serialization, got nil")
	}
}

func TestSerializationFormat(t *testing.T) {
	for _, compression := range []Compression{Uncompressed, Snappy, Zstd} {
		for _, checksum := range []Checksum{NoChecksum, CRC32} {
			format := EncodeSerializationFormat(compression, checksum)
			gotCompression, gotChecksum := DecodeSerializationFormat(format)
			if gotCompression != compression || gotChecksum != checksum {
				t.Errorf("Format byte round trip failed: (%s, %s) -> (%s, %s)",
					compression, checksum, gotCompression, gotChecksum)
			}
		}
	}
}

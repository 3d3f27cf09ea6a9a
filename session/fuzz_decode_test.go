package session

import "testing"

// FuzzSessionDecode feeds arbitrary blobs to Decode. It must never panic, and
// anything it accepts must re-encode to the same bytes.
func FuzzSessionDecode(f *testing.F) {
	valid, err := Encode(testSession(""))
	if err != nil {
		f.Fatalf("encode seed: %v", err)
	}
	f.Add(valid)
	f.Add([]byte{})
	f.Add([]byte{formatVersionCurrent})
	f.Add([]byte{formatVersionCurrent, 255})

	f.Fuzz(func(t *testing.T, data []byte) {
		sess, err := Decode(data)
		if err != nil {
			return
		}
		again, err := Encode(sess)
		if err != nil {
			t.Fatalf("re-encode accepted session: %v", err)
		}
		if string(again) != string(data) {
			t.Fatalf("re-encoded bytes differ")
		}
	})
}

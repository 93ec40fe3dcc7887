package mctpd

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeConf(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mctpd.conf")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing conf: %v", err)
	}
	return path
}

func TestParseEidRange(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    EidRange
		wantErr error
	}{
		{
			name:    "simple range",
			content: "dynamic_eid_range = [8, 254]\n",
			want:    EidRange{Start: 8, End: 254},
		},
		{
			name:    "reversed bounds are normalized",
			content: "dynamic_eid_range = [254, 8]\n",
			want:    EidRange{Start: 8, End: 254},
		},
		{
			name:    "single element range",
			content: "dynamic_eid_range = [10,10]\n",
			want:    EidRange{Start: 10, End: 10},
		},
		{
			name:    "whitespace inside brackets",
			content: "dynamic_eid_range = [  8 ,  32 ]\n",
			want:    EidRange{Start: 8, End: 32},
		},
		{
			name: "first match wins",
			content: "dynamic_eid_range = [8, 16]\n" +
				"dynamic_eid_range = [100, 200]\n",
			want: EidRange{Start: 8, End: 16},
		},
		{
			name: "surrounding configuration ignored",
			content: "# mctpd configuration\nmode = \"bus-owner\"\n" +
				"dynamic_eid_range = [8, 254]\nother = 1\n",
			want: EidRange{Start: 8, End: 254},
		},
		{
			name:    "zero start rejected",
			content: "dynamic_eid_range = [0, 254]\n",
			wantErr: ErrRangeInvalid,
		},
		{
			name:    "zero end rejected",
			content: "dynamic_eid_range = [8, 0]\n",
			wantErr: ErrRangeInvalid,
		},
		{
			name:    "malformed brackets",
			content: "dynamic_eid_range = 8, 254\n",
			wantErr: ErrRangeInvalid,
		},
		{
			name:    "missing declaration",
			content: "mode = \"bus-owner\"\n",
			wantErr: ErrRangeNotFound,
		},
		{
			name:    "empty file",
			content: "",
			wantErr: ErrRangeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseEidRange(writeConf(t, tt.content))
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseEidRange() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseEidRange() error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ParseEidRange() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestParseEidRange_MissingFile(t *testing.T) {
	_, err := ParseEidRange(filepath.Join(t.TempDir(), "absent.conf"))
	if err == nil {
		t.Fatal("ParseEidRange() with missing file expected error, got nil")
	}
}

func TestEidRange_Size(t *testing.T) {
	r := EidRange{Start: 8, End: 254}
	if got := r.Size(); got != 247 {
		t.Errorf("Size() = %d, want 247", got)
	}

	single := EidRange{Start: 10, End: 10}
	if got := single.Size(); got != 1 {
		t.Errorf("Size() of single-element range = %d, want 1", got)
	}
}

func TestEidRange_Contains(t *testing.T) {
	r := EidRange{Start: 8, End: 32}

	for _, eid := range []int{8, 20, 32} {
		if !r.Contains(eid) {
			t.Errorf("Contains(%d) = false, want true", eid)
		}
	}
	for _, eid := range []int{7, 33, 0} {
		if r.Contains(eid) {
			t.Errorf("Contains(%d) = true, want false", eid)
		}
	}
}

func TestEidRange_Candidates(t *testing.T) {
	r := EidRange{Start: 8, End: 11}

	got := r.Candidates()
	want := []int{8, 9, 10, 11}
	if len(got) != len(want) {
		t.Fatalf("Candidates() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Candidates()[%d] = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestEidRange_String(t *testing.T) {
	r := EidRange{Start: 8, End: 254}
	if got := r.String(); got != "[8, 254]" {
		t.Errorf("String() = %q, want %q", got, "[8, 254]")
	}
}

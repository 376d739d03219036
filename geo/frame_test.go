package geo

import (
	"errors"
	"testing"
)

func TestParseFrame(t *testing.T) {
	tests := []struct {
		in      string
		want    Frame
		wantErr bool
	}{
		{"wgs84", WGS84, false},
		{"GCJ02", GCJ02, false},
		{" gcj-02 ", GCJ02, false},
		{"BD-09", BD09, false},
		{"mercator", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFrame(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownFrame) {
					t.Fatalf("ParseFrame(%q) error = %v, want ErrUnknownFrame", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFrame(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseFrame(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestFrameString(t *testing.T) {
	if WGS84.String() != "wgs84" || GCJ02.String() != "gcj02" || BD09.String() != "bd09" {
		t.Errorf("unexpected frame names: %s %s %s", WGS84, GCJ02, BD09)
	}
	if got := Frame(42).String(); got != "Frame(42)" {
		t.Errorf("Frame(42).String() = %q", got)
	}
}

func TestConvertDispatch(t *testing.T) {
	p := Point{Lng: 116.3972, Lat: 39.9163}
	gcj := WGS84ToGCJ02(p.Lng, p.Lat)
	bd := WGS84ToBD09(p.Lng, p.Lat)

	tests := []struct {
		name     string
		from, to Frame
		in       Point
		exact    bool
		want     Point
	}{
		{"identity", GCJ02, GCJ02, gcj, false, gcj},
		{"wgs84 to gcj02", WGS84, GCJ02, p, false, gcj},
		{"wgs84 to bd09", WGS84, BD09, p, false, bd},
		{"gcj02 to bd09", GCJ02, BD09, gcj, false, GCJ02ToBD09(gcj.Lng, gcj.Lat)},
		{"bd09 to gcj02", BD09, GCJ02, bd, false, BD09ToGCJ02(bd.Lng, bd.Lat)},
		{"gcj02 to wgs84 approximate", GCJ02, WGS84, gcj, false, GCJ02ToWGS84(gcj.Lng, gcj.Lat)},
		{"gcj02 to wgs84 exact", GCJ02, WGS84, gcj, true, GCJ02ToWGS84Exactly(gcj.Lng, gcj.Lat)},
		{"bd09 to wgs84 approximate", BD09, WGS84, bd, false, BD09ToWGS84(bd.Lng, bd.Lat)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Convert(tt.from, tt.to, tt.in, tt.exact)
			if err != nil {
				t.Fatalf("Convert unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("Convert(%s => %s, %v) = %v, want %v", tt.from, tt.to, tt.in, got, tt.want)
			}
		})
	}
}

func TestConvertBD09ToWGS84Exact(t *testing.T) {
	p := Point{Lng: 121.4737, Lat: 31.2304}
	bd := WGS84ToBD09(p.Lng, p.Lat)

	got, err := Convert(BD09, WGS84, bd, true)
	if err != nil {
		t.Fatalf("Convert unexpected error: %v", err)
	}
	gcj := BD09ToGCJ02(bd.Lng, bd.Lat)
	if want := GCJ02ToWGS84Exactly(gcj.Lng, gcj.Lat); got != want {
		t.Errorf("Convert exact = %v, want %v", got, want)
	}
}

func TestConvertRejectsUnknownFrame(t *testing.T) {
	if _, err := Convert(Frame(0), WGS84, Point{}, false); !errors.Is(err, ErrUnknownFrame) {
		t.Errorf("expected ErrUnknownFrame for source, got %v", err)
	}
	if _, err := Convert(WGS84, Frame(9), Point{}, false); !errors.Is(err, ErrUnknownFrame) {
		t.Errorf("expected ErrUnknownFrame for target, got %v", err)
	}
}

func TestUsesSolver(t *testing.T) {
	if !UsesSolver(GCJ02, WGS84, true) || !UsesSolver(BD09, WGS84, true) {
		t.Errorf("exact conversions into WGS84 should use the solver")
	}
	if UsesSolver(GCJ02, WGS84, false) || UsesSolver(WGS84, GCJ02, true) {
		t.Errorf("unexpected solver usage")
	}
}

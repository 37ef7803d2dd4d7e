package gfx

import (
	"math"
	"testing"
)

func near(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestOrthoMapsCorners(t *testing.T) {
	m := Ortho(0, 800, 600, 0, -1, 1)
	tests := []struct {
		x, y, wantX, wantY float32
	}{
		{0, 0, -1, 1},
		{800, 0, 1, 1},
		{0, 600, -1, -1},
		{400, 300, 0, 0},
	}
	for _, tt := range tests {
		x, y, w := m.Transform(tt.x, tt.y)
		if !near(x/w, tt.wantX) || !near(y/w, tt.wantY) {
			t.Errorf("Ortho(%v,%v) = (%v,%v), want (%v,%v)", tt.x, tt.y, x/w, y/w, tt.wantX, tt.wantY)
		}
	}
}

func TestMulAppliesRightFirst(t *testing.T) {
	// Scale then translate: (1,1) -> (2,3) -> (12,13).
	m := Translation(10, 10).Mul(Scaling(2, 3))
	x, y, _ := m.Transform(1, 1)
	if !near(x, 12) || !near(y, 13) {
		t.Errorf("Transform = (%v,%v), want (12,13)", x, y)
	}
}

func TestRotationZQuarterTurn(t *testing.T) {
	x, y, _ := RotationZ(math.Pi/2).Transform(1, 0)
	if !near(x, 0) || !near(y, 1) {
		t.Errorf("RotationZ(pi/2)(1,0) = (%v,%v), want (0,1)", x, y)
	}
}

func TestIdentityMul(t *testing.T) {
	m := Translation(3, 4).Mul(RotationZ(0.7))
	if got := Identity().Mul(m); got != m {
		t.Errorf("Identity*m = %v, want %v", got, m)
	}
}

func TestTransposed(t *testing.T) {
	m := Translation(5, 6)
	tr := m.Transposed()
	if tr[12] != 5 || tr[13] != 6 {
		t.Errorf("Transposed translation = (%v,%v), want (5,6)", tr[12], tr[13])
	}
	if tr.Transposed() != m {
		t.Error("double transpose changed the matrix")
	}
}

func TestErrorCodeString(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{NoError, "GL_NO_ERROR"},
		{InvalidOperation, "GL_INVALID_OPERATION"},
		{OutOfMemory, "GL_OUT_OF_MEMORY"},
		{ErrorCode(0x1234), "GL_ERROR(0x1234)"},
	}
	for _, tt := range tests {
		if got := tt.code.String(); got != tt.want {
			t.Errorf("%d.String() = %q, want %q", tt.code, got, tt.want)
		}
	}
}

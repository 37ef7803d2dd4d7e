package tilecam

import "testing"

func TestShaderParams(t *testing.T) {
	dev, _ := newTestContext(t)
	s, err := NewShader(dev, QuadShaderSource)
	if err != nil {
		t.Fatalf("NewShader: %v", err)
	}
	defer s.Release(dev)

	s.SetFloat("Fade", 0.25)
	s.SetVec4("Tint", [4]float32{1, 0.5, 0, 1})
	if v, ok := s.Float("Fade"); !ok || v != 0.25 {
		t.Errorf("Float(Fade) = %v, %v", v, ok)
	}
	if v, ok := s.Vec4("Tint"); !ok || v != [4]float32{1, 0.5, 0, 1} {
		t.Errorf("Vec4(Tint) = %v, %v", v, ok)
	}
	if _, ok := s.Vec4("Fade"); ok {
		t.Error("Vec4 returned a float uniform")
	}

	s.SetVec4("Fade", [4]float32{1, 2, 3, 4})
	if _, ok := s.Float("Fade"); ok {
		t.Error("Fade still a float after SetVec4")
	}
	if len(s.params) != 2 {
		t.Errorf("params = %d, want 2", len(s.params))
	}
}

func TestColorMatrixPresets(t *testing.T) {
	id := IdentityColorMatrix()
	tests := []struct {
		name string
		m    ColorMatrix
	}{
		{"brightness 0", BrightnessMatrix(0)},
		{"contrast 1", ContrastMatrix(1)},
		{"saturation 1", SaturationMatrix(1)},
	}
	for _, tt := range tests {
		for i := range id {
			if !approxEqual(tt.m[i], id[i], 1e-12) {
				t.Errorf("%s: [%d] = %v, want %v", tt.name, i, tt.m[i], id[i])
			}
		}
	}

	grey := SaturationMatrix(0)
	for row := 0; row < 3; row++ {
		sum := grey[row*5] + grey[row*5+1] + grey[row*5+2]
		if !approxEqual(sum, 1, 1e-12) {
			t.Errorf("greyscale row %d sums to %v", row, sum)
		}
	}
	if flat := ContrastMatrix(0); flat[0] != 0 || flat[4] != 0.5 {
		t.Errorf("contrast 0 = %v", flat)
	}
}

func TestColorMatrixShaderUniforms(t *testing.T) {
	dev, _ := newTestContext(t)
	s, err := NewColorMatrixShader(dev, BrightnessMatrix(0.2))
	if err != nil {
		t.Fatalf("NewColorMatrixShader: %v", err)
	}
	defer s.Release(dev)

	if v, _ := s.Vec4(UniformOffset); v != [4]float32{0.2, 0.2, 0.2, 0} {
		t.Errorf("Offset = %v", v)
	}
	if v, _ := s.Vec4(UniformMatrixG); v != [4]float32{0, 1, 0, 0} {
		t.Errorf("MatrixG = %v", v)
	}
	if v, _ := s.Float(UniformStrength); v != 1 {
		t.Errorf("Strength = %v, want 1", v)
	}
}

package detector

import (
	"errors"
	"testing"
)

func TestFaceLandmarks_Anchor(t *testing.T) {
	t.Run("returns point six", func(t *testing.T) {
		face := FaceAt(200, 150)

		anchor, ok := face.Anchor()
		if !ok {
			t.Fatal("expected anchor to be present")
		}
		if anchor.X != 200 || anchor.Y != 150 {
			t.Errorf("anchor = (%f, %f), want (200, 150)", anchor.X, anchor.Y)
		}
	})

	t.Run("short mesh has no anchor", func(t *testing.T) {
		face := FaceLandmarks{Points: make([]Point3D, FaceAnchor)}
		if _, ok := face.Anchor(); ok {
			t.Error("expected no anchor for a mesh with fewer than 7 points")
		}
	})

	t.Run("nil face has no anchor", func(t *testing.T) {
		var face *FaceLandmarks
		if _, ok := face.Anchor(); ok {
			t.Error("expected no anchor for nil face")
		}
	})
}

func TestFrame_VideoSize(t *testing.T) {
	tests := []struct {
		name         string
		frame        Frame
		wantW, wantH float64
	}{
		{"explicit size", Frame{Width: 1280, Height: 720}, 1280, 720},
		{"defaults when unset", Frame{}, DefaultVideoWidth, DefaultVideoHeight},
		{"negative falls back", Frame{Width: -1, Height: 360}, DefaultVideoWidth, 360},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := tt.frame.VideoSize()
			if w != tt.wantW || h != tt.wantH {
				t.Errorf("VideoSize() = (%f, %f), want (%f, %f)", w, h, tt.wantW, tt.wantH)
			}
		})
	}
}

func TestDecodeResponse(t *testing.T) {
	t.Run("keeps complete hands and all faces", func(t *testing.T) {
		points := make([]byte, 0)
		points = append(points, '[')
		for i := 0; i < NumLandmarks; i++ {
			if i > 0 {
				points = append(points, ',')
			}
			points = append(points, []byte(`{"x":1,"y":2,"z":3}`)...)
		}
		points = append(points, ']')

		line := `{"hands":[{"points":` + string(points) + `,"handedness":"Left","score":0.9},` +
			`{"points":[{"x":1,"y":1,"z":0}],"handedness":"Right","score":0.8}],` +
			`"faces":[{"points":[{"x":5,"y":6,"z":0}]}]}`

		frame, err := decodeResponse([]byte(line))
		if err != nil {
			t.Fatalf("decodeResponse() error = %v", err)
		}
		if len(frame.Hands) != 1 {
			t.Fatalf("expected 1 complete hand, got %d", len(frame.Hands))
		}
		if frame.Hands[0].Handedness != "Left" {
			t.Errorf("handedness = %s, want Left", frame.Hands[0].Handedness)
		}
		if frame.Hands[0].Points[PinkyTip].Y != 2 {
			t.Errorf("pinky tip y = %f, want 2", frame.Hands[0].Points[PinkyTip].Y)
		}
		if len(frame.Faces) != 1 || frame.Faces[0].Points[0].X != 5 {
			t.Errorf("faces = %+v, want one face with x=5", frame.Faces)
		}
	})

	t.Run("rejects malformed json", func(t *testing.T) {
		if _, err := decodeResponse([]byte("{not json")); err == nil {
			t.Error("expected error for malformed response")
		}
	})
}

func TestMockDetector(t *testing.T) {
	t.Run("returns empty frame by default", func(t *testing.T) {
		mock := NewMockDetector()

		frame, err := mock.Detect(nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(frame.Hands) != 0 || len(frame.Faces) != 0 {
			t.Errorf("expected empty frame, got %+v", frame)
		}
	})

	t.Run("returns configured frame", func(t *testing.T) {
		mock := NewMockDetector()
		mock.SetFrame(Frame{Hands: []HandLandmarks{
			HandAt(PoseThumbsUp, 100, 300),
			HandAt(PoseOpenPalm, 400, 300),
		}})

		frame, err := mock.Detect(nil)
		if err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		if len(frame.Hands) != 2 {
			t.Errorf("expected 2 hands, got %d", len(frame.Hands))
		}
		if mock.Calls() != 1 {
			t.Errorf("expected 1 call, got %d", mock.Calls())
		}
	})

	t.Run("returns configured error", func(t *testing.T) {
		mock := NewMockDetector()
		expectedErr := errors.New("detection failed")
		mock.SetError(expectedErr)

		if _, err := mock.Detect(nil); err != expectedErr {
			t.Errorf("expected error %v, got %v", expectedErr, err)
		}
	})

	t.Run("implements Detector interface", func(t *testing.T) {
		var _ Detector = (*MockDetector)(nil)
		var _ Detector = (*MediaPipe)(nil)
	})
}

func TestHandAt(t *testing.T) {
	t.Run("extended fingers rise above their joints", func(t *testing.T) {
		h := HandAt(PoseOpenPalm, 320, 400)
		for _, tip := range []int{IndexTip, MiddleTip, RingTip, PinkyTip} {
			if h.Points[tip].Y >= h.Points[tip-1].Y || h.Points[tip].Y >= h.Points[tip-3].Y {
				t.Errorf("tip %d should be above its DIP and MCP", tip)
			}
		}
	})

	t.Run("curled fingers fold below their middle joint", func(t *testing.T) {
		h := HandAt(PoseFist, 320, 400)
		for _, tip := range []int{IndexTip, MiddleTip, RingTip, PinkyTip} {
			if h.Points[tip].Y <= h.Points[tip-1].Y {
				t.Errorf("tip %d should be below its DIP", tip)
			}
		}
	})

	t.Run("palm is the wrist", func(t *testing.T) {
		h := HandAt(PosePeace, 12, 34)
		if p := h.Palm(); p.X != 12 || p.Y != 34 {
			t.Errorf("Palm() = (%f, %f), want (12, 34)", p.X, p.Y)
		}
	})
}

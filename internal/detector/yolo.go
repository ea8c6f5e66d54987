package detector

import (
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// YOLO input geometry for the exported v8 ONNX models.
const (
	YOLOInputSize  = 640
	YOLONumClasses = 80
)

// YOLODetector implements PersonDetector using a YOLOv8 ONNX model run
// through the OpenCV DNN module.
type YOLODetector struct {
	config Config
	net    gocv.Net
	mu     sync.Mutex
}

// NewYOLODetector loads the model at config.ModelPath.
func NewYOLODetector(config Config) (*YOLODetector, error) {
	if _, err := os.Stat(config.ModelPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrModelNotFound, config.ModelPath)
	}

	net := gocv.ReadNet(config.ModelPath, "")
	if net.Empty() {
		return nil, fmt.Errorf("load model %s: empty network", config.ModelPath)
	}

	return &YOLODetector{
		config: config,
		net:    net,
	}, nil
}

// Detect runs the network on a frame and returns the people above the
// confidence threshold after non-maximum suppression.
func (d *YOLODetector) Detect(frame *gocv.Mat) ([]Detection, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if frame == nil || frame.Empty() {
		return nil, fmt.Errorf("detect: empty frame")
	}

	blob := gocv.BlobFromImage(*frame, 1.0/255.0, image.Pt(YOLOInputSize, YOLOInputSize), gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	d.net.SetInput(blob, "")
	output := d.net.Forward("")
	defer output.Close()

	// Output is [1, 4+classes, boxes].
	sizes := output.Size()
	if len(sizes) != 3 || sizes[1] != 4+YOLONumClasses {
		return nil, fmt.Errorf("detect: unexpected output shape %v", sizes)
	}

	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, fmt.Errorf("detect: read output: %w", err)
	}

	scaleX := float64(frame.Cols()) / YOLOInputSize
	scaleY := float64(frame.Rows()) / YOLOInputSize
	candidates := decodeYOLOv8(data, YOLONumClasses, sizes[2], scaleX, scaleY, d.config.MinConfidence)

	return suppress(candidates, d.config.MinConfidence, d.config.NMSThreshold), nil
}

// Close releases the network.
func (d *YOLODetector) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.net.Close()
}

// decodeYOLOv8 turns the channel-major YOLOv8 output into detections in
// frame coordinates. data holds (4+numClasses) rows of numBoxes values:
// center x, center y, width, height, then one score per class.
func decodeYOLOv8(data []float32, numClasses, numBoxes int, scaleX, scaleY, minConfidence float64) []Detection {
	if len(data) < (4+numClasses)*numBoxes {
		return nil
	}

	var detections []Detection
	for i := 0; i < numBoxes; i++ {
		bestClass := -1
		bestScore := float32(0)
		for c := 0; c < numClasses; c++ {
			score := data[(4+c)*numBoxes+i]
			if score > bestScore {
				bestScore = score
				bestClass = c
			}
		}

		if bestClass < 0 || float64(bestScore) < minConfidence {
			continue
		}

		cx := float64(data[0*numBoxes+i])
		cy := float64(data[1*numBoxes+i])
		w := float64(data[2*numBoxes+i])
		h := float64(data[3*numBoxes+i])

		detections = append(detections, Detection{
			ClassID: bestClass,
			Box: BoundingBox{
				XMin: (cx - w/2) * scaleX,
				YMin: (cy - h/2) * scaleY,
				XMax: (cx + w/2) * scaleX,
				YMax: (cy + h/2) * scaleY,
			},
			Confidence: float64(bestScore),
		})
	}

	return detections
}

// suppress runs non-maximum suppression over the person candidates only,
// so a box of another class never removes a fighter. Overlapping fighters
// survive as long as their IoU stays at or below nmsThreshold.
func suppress(candidates []Detection, minConfidence, nmsThreshold float64) []Detection {
	var (
		people []Detection
		rects  []image.Rectangle
		scores []float32
	)
	for _, c := range candidates {
		if c.ClassID != ClassPerson {
			continue
		}
		people = append(people, c)
		rects = append(rects, c.Box.Rect())
		scores = append(scores, float32(c.Confidence))
	}
	if len(people) == 0 {
		return []Detection{}
	}

	keep := gocv.NMSBoxes(rects, scores, float32(minConfidence), float32(nmsThreshold))

	result := make([]Detection, 0, len(keep))
	for _, idx := range keep {
		result = append(result, people[idx])
	}
	return result
}

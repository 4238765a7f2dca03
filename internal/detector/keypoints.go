// Package detector provides body pose detection interfaces and types for the game.
package detector

import "math"

// Part names a body keypoint, following the 17-point MoveNet/COCO convention.
type Part string

// Body keypoints reported by the pose model.
const (
	Nose          Part = "nose"
	LeftEye       Part = "left_eye"
	RightEye      Part = "right_eye"
	LeftEar       Part = "left_ear"
	RightEar      Part = "right_ear"
	LeftShoulder  Part = "left_shoulder"
	RightShoulder Part = "right_shoulder"
	LeftElbow     Part = "left_elbow"
	RightElbow    Part = "right_elbow"
	LeftWrist     Part = "left_wrist"
	RightWrist    Part = "right_wrist"
	LeftHip       Part = "left_hip"
	RightHip      Part = "right_hip"
	LeftKnee      Part = "left_knee"
	RightKnee     Part = "right_knee"
	LeftAnkle     Part = "left_ankle"
	RightAnkle    Part = "right_ankle"
)

// Parts lists every keypoint in model index order.
var Parts = []Part{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow, LeftWrist, RightWrist,
	LeftHip, RightHip, LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

// MinConfidence is the confidence a keypoint must exceed before it is drawn.
const MinConfidence = 0.25

// Point is a 2D position in webcam frame coordinates (pixels, y down).
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Dist returns the Euclidean distance between two points.
func Dist(a, b Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// Midpoint returns the point halfway between a and b.
func Midpoint(a, b Point) Point {
	return Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

// Keypoint is a detected body landmark with the model's confidence in it.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Confidence float64 `json:"confidence"`
}

// Pt returns the keypoint position.
func (k Keypoint) Pt() Point {
	return Point{X: k.X, Y: k.Y}
}

// Confident reports whether the keypoint clears MinConfidence.
func (k Keypoint) Confident() bool {
	return k.Confidence > MinConfidence
}

// Pose is one detected person. Parts the model did not report are absent.
type Pose map[Part]Keypoint

// Point returns the position of a part and whether the pose contains it.
func (p Pose) Point(part Part) (Point, bool) {
	k, ok := p[part]
	if !ok {
		return Point{}, false
	}
	return k.Pt(), true
}

// Connection is a pair of keypoints joined by a bone in the skeleton.
type Connection struct {
	A, B Part
}

var skeleton = []Connection{
	{Nose, LeftEye},
	{Nose, RightEye},
	{LeftEye, LeftEar},
	{RightEye, RightEar},
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow},
	{LeftShoulder, LeftHip},
	{RightShoulder, RightElbow},
	{RightShoulder, RightHip},
	{LeftElbow, LeftWrist},
	{RightElbow, RightWrist},
	{LeftHip, RightHip},
	{LeftHip, LeftKnee},
	{RightHip, RightKnee},
	{LeftKnee, LeftAnkle},
	{RightKnee, RightAnkle},
}

// Skeleton returns the skeletal connections used to draw a pose.
// The returned slice is a copy.
func Skeleton() []Connection {
	out := make([]Connection, len(skeleton))
	copy(out, skeleton)
	return out
}

// Primary returns the first pose of a detection snapshot.
func Primary(poses []Pose) (Pose, bool) {
	if len(poses) == 0 || poses[0] == nil {
		return nil, false
	}
	return poses[0], true
}

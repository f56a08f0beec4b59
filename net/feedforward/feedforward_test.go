package feedforward

import "bytes"
import "math"
import "math/rand"
import "path/filepath"
import "testing"

import "github.com/neurlang/estimator/layer/full"
import "github.com/neurlang/estimator/layer/relu"
import "gonum.org/v1/gonum/mat"

func smallNet(seed int64) *FeedforwardNetwork {
	rng := rand.New(rand.NewSource(seed))
	var net FeedforwardNetwork
	net.NewLayer(full.MustNew("dnn/hiddenlayer_0", 4, 8, rng))
	net.NewLayer(relu.New())
	net.NewLayer(full.MustNew("dnn/logits", 8, 3, rng))
	return &net
}

func TestNetworkShape(t *testing.T) {
	net := smallNet(1)
	if net.LenLayers() != 3 {
		t.Errorf("LenLayers = %d", net.LenLayers())
	}
	if net.Len() != 4*8+8+8*3+3 {
		t.Errorf("Len = %d", net.Len())
	}
	if net.GetParam("dnn/logits/bias") == nil || net.GetParam("nope") != nil {
		t.Error("GetParam lookup broken")
	}
}

func TestNetworkLearns(t *testing.T) {
	net := smallNet(2)
	x := mat.NewDense(3, 4, []float64{
		1, 0, 0, 1,
		0, 1, 0, 1,
		0, 0, 1, 1,
	})
	labels := []int{0, 1, 2}

	first, _, _, err := SoftmaxCrossEntropy(net.Logits(x), labels)
	if err != nil {
		t.Fatal(err)
	}
	var last float64
	for step := 0; step < 200; step++ {
		loss, grad, _, err := SoftmaxCrossEntropy(net.Logits(x), labels)
		if err != nil {
			t.Fatal(err)
		}
		last = loss
		net.Backward(grad)
		for _, p := range net.Params() {
			var delta mat.Dense
			delta.Scale(0.5, p.Grad)
			p.Value.Sub(p.Value, &delta)
		}
	}
	if last >= first {
		t.Fatalf("loss did not decrease: %g -> %g", first, last)
	}
	for i, c := range net.Infer(x) {
		if c != labels[i] {
			t.Errorf("row %d predicted %d, want %d", i, c, labels[i])
		}
	}
}

func TestSoftmaxCrossEntropy(t *testing.T) {
	logits := mat.NewDense(2, 3, []float64{0, 0, 0, 10, 0, 0})
	loss, grad, correct, err := SoftmaxCrossEntropy(logits, []int{1, 0})
	if err != nil {
		t.Fatal(err)
	}
	want := (math.Log(3) + -math.Log(math.Exp(10)/(math.Exp(10)+2))) / 2
	if math.Abs(loss-want) > 1e-9 {
		t.Errorf("loss %g, want %g", loss, want)
	}
	if correct != 1 {
		t.Errorf("correct = %d", correct)
	}
	for i := 0; i < 2; i++ {
		if s := mat.Sum(grad.RowView(i)); math.Abs(s) > 1e-12 {
			t.Errorf("gradient row %d sums to %g", i, s)
		}
	}
	if _, _, _, err := SoftmaxCrossEntropy(logits, []int{3, 0}); err == nil {
		t.Error("out of range label accepted")
	}
	if _, _, _, err := SoftmaxCrossEntropy(logits, []int{0}); err == nil {
		t.Error("label count mismatch accepted")
	}
}

func TestWeightsRoundTrip(t *testing.T) {
	src := smallNet(3)
	var buf bytes.Buffer
	if err := src.WriteCompressedWeights(&buf); err != nil {
		t.Fatal(err)
	}
	dst := smallNet(4)
	if err := dst.ReadCompressedWeights(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	for i, p := range src.Params() {
		if !mat.Equal(p.Value, dst.Params()[i].Value) {
			t.Errorf("%s differs after round trip", p.Name)
		}
	}

	name := filepath.Join(t.TempDir(), "weights.json.lzw")
	if err := src.WriteCompressedWeightsToFile(name); err != nil {
		t.Fatal(err)
	}
	fromFile := smallNet(6)
	if err := fromFile.ReadCompressedWeightsFromFile(name); err != nil {
		t.Fatal(err)
	}
	for i, p := range src.Params() {
		if !mat.Equal(p.Value, fromFile.Params()[i].Value) {
			t.Errorf("%s differs after file round trip", p.Name)
		}
	}
	if err := fromFile.ReadCompressedWeightsFromFile(name + ".missing"); err == nil {
		t.Error("missing weights file accepted")
	}

	rng := rand.New(rand.NewSource(5))
	var other FeedforwardNetwork
	other.NewLayer(full.MustNew("dnn/hiddenlayer_0", 4, 16, rng))
	if err := other.ReadCompressedWeights(bytes.NewReader(buf.Bytes())); err == nil {
		t.Error("shape mismatch accepted")
	}
}

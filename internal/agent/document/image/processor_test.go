package image

import (
	"context"
	"errors"
	"image/color"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/textract"
	"github.com/aws/aws-sdk-go-v2/service/textract/types"
	"github.com/disintegration/imaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feichai0017/correspondence-tracker/pkg/logger"
)

type fakeRunner struct {
	lookErr error
	runErr  error
	render  bool
	args    []string
}

func (r *fakeRunner) LookPath(name string) (string, error) {
	if r.lookErr != nil {
		return "", r.lookErr
	}
	return "/usr/bin/" + name, nil
}

func (r *fakeRunner) Run(_ context.Context, _ string, args ...string) ([]byte, []byte, error) {
	r.args = args
	if r.runErr != nil {
		return nil, []byte("boom"), r.runErr
	}
	if r.render {
		prefix := args[len(args)-1]
		img := imaging.New(40, 20, color.White)
		if err := imaging.Save(img, prefix+"-1.png"); err != nil {
			return nil, nil, err
		}
	}
	return nil, nil, nil
}

func newTestProcessor(t *testing.T, runner Runner) *Processor {
	t.Helper()
	p, err := NewProcessor(logger.NewTestLogger(), &ProcessOptions{TempDir: t.TempDir()})
	require.NoError(t, err)
	p.runner = runner
	return p
}

func TestRecognizeFirstPageUnavailable(t *testing.T) {
	p := newTestProcessor(t, &fakeRunner{lookErr: errors.New("not found")})

	assert.False(t, p.Available())
	_, err := p.RecognizeFirstPage(context.Background(), "oficio.pdf")
	assert.ErrorIs(t, err, ErrOCRUnavailable)
}

func TestRecognizeFirstPageRenderFailure(t *testing.T) {
	p := newTestProcessor(t, &fakeRunner{runErr: errors.New("exit status 1")})

	_, err := p.RecognizeFirstPage(context.Background(), "oficio.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to render pdf")
}

func TestRecognizeFirstPageNoOutput(t *testing.T) {
	p := newTestProcessor(t, &fakeRunner{})

	_, err := p.RecognizeFirstPage(context.Background(), "oficio.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no pages rendered")
}

func TestRecognizeFirstPage(t *testing.T) {
	runner := &fakeRunner{render: true}
	p := newTestProcessor(t, runner)

	var gotPNG []byte
	p.recognize = func(_ context.Context, png []byte) (string, error) {
		gotPNG = png
		return "OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE", nil
	}

	text, err := p.RecognizeFirstPage(context.Background(), "oficio.pdf")
	require.NoError(t, err)
	assert.Equal(t, "OFICIO N° 00035-2026-MIDIS/FONCODES/UGPE", text)
	assert.NotEmpty(t, gotPNG)
	assert.Equal(t, []string{"-r", "300", "-png", "-f", "1", "-l", "1", "oficio.pdf"}, runner.args[:8])
}

func TestDefaultPreprocessorsKeepBounds(t *testing.T) {
	p := newTestProcessor(t, &fakeRunner{})
	img := imaging.New(30, 10, color.NRGBA{R: 200, G: 10, B: 10, A: 255})

	out, err := p.applyPreprocessing(img)
	require.NoError(t, err)
	assert.Equal(t, img.Bounds(), out.Bounds())

	r, g, b, _ := out.At(5, 5).RGBA()
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)

	_, err = p.applyPreprocessing(nil)
	assert.Error(t, err)
}

type fakeTextract struct {
	out *textract.DetectDocumentTextOutput
	err error
	in  *textract.DetectDocumentTextInput
}

func (f *fakeTextract) DetectDocumentText(_ context.Context, in *textract.DetectDocumentTextInput, _ ...func(*textract.Options)) (*textract.DetectDocumentTextOutput, error) {
	f.in = in
	return f.out, f.err
}

func TestTextractRecognizeFirstPage(t *testing.T) {
	client := &fakeTextract{out: &textract.DetectDocumentTextOutput{
		Blocks: []types.Block{
			{BlockType: types.BlockTypePage},
			{BlockType: types.BlockTypeLine, Text: aws.String("CARTA N° 015-2026-NEMAEC/PRESIDENCIA"), Confidence: aws.Float32(98)},
			{BlockType: types.BlockTypeLine, Text: aws.String("ruido"), Confidence: aws.Float32(10)},
			{BlockType: types.BlockTypeWord, Text: aws.String("CARTA"), Confidence: aws.Float32(99)},
			{BlockType: types.BlockTypeLine, Text: aws.String("Señor"), Confidence: aws.Float32(90)},
		},
	}}
	p := newTextractProcessor(client, &TextractConfig{}, logger.NewTestLogger())
	p.firstPage = func(string) ([]byte, error) { return []byte("%PDF-page-1"), nil }

	text, err := p.RecognizeFirstPage(context.Background(), "carta.pdf")
	require.NoError(t, err)
	assert.Equal(t, "CARTA N° 015-2026-NEMAEC/PRESIDENCIA\nSeñor", text)
	assert.Equal(t, []byte("%PDF-page-1"), client.in.Document.Bytes)
	assert.True(t, p.Available())
}

func TestTextractErrors(t *testing.T) {
	client := &fakeTextract{err: errors.New("throttled")}
	p := newTextractProcessor(client, &TextractConfig{}, logger.NewTestLogger())
	p.firstPage = func(string) ([]byte, error) { return []byte("x"), nil }

	_, err := p.RecognizeFirstPage(context.Background(), "carta.pdf")
	assert.ErrorContains(t, err, "throttled")

	p.firstPage = func(string) ([]byte, error) { return nil, errors.New("bad pdf") }
	_, err = p.RecognizeFirstPage(context.Background(), "carta.pdf")
	assert.ErrorContains(t, err, "bad pdf")
}

func TestNoopEngine(t *testing.T) {
	var e NoopEngine
	assert.False(t, e.Available())
	_, err := e.RecognizeFirstPage(context.Background(), "x.pdf")
	assert.ErrorIs(t, err, ErrOCRUnavailable)
}

package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeBackend struct {
	name   string
	text   string
	err    error
	blowUp bool

	calls int
}

func (b *fakeBackend) Name() string { return b.name }
func (b *fakeBackend) ExtractText(path string) (string, error) {
	b.calls++
	if b.blowUp {
		panic("malformed xref table")
	}
	return b.text, b.err
}

type fakeOCR struct {
	text      string
	err       error
	available bool

	calls int
}

func (o *fakeOCR) Name() string    { return "fake-ocr" }
func (o *fakeOCR) Available() bool { return o.available }
func (o *fakeOCR) ExtractText(ctx context.Context, path string, opts Options) (string, error) {
	o.calls++
	return o.text, o.err
}

func TestExtractFirstBackendWins(t *testing.T) {
	first := &fakeBackend{name: "first", text: "hello"}
	second := &fakeBackend{name: "second", text: "unused"}
	f := NewFacade([]NativeBackend{first, second}, nil)

	got, viaOCR := f.Extract(context.Background(), "x.pdf", Options{})
	assert.Equal(t, "hello", got)
	assert.False(t, viaOCR)
	assert.Zero(t, second.calls, "later backends must not run once text is found")
}

func TestExtractDegradesPastErrors(t *testing.T) {
	broken := &fakeBackend{name: "broken", err: errors.New("bad header")}
	panicking := &fakeBackend{name: "panicking", blowUp: true}
	working := &fakeBackend{name: "working", text: "recovered"}
	f := NewFacade([]NativeBackend{broken, panicking, working}, nil)

	got, viaOCR := f.Extract(context.Background(), "x.pdf", Options{})
	assert.Equal(t, "recovered", got)
	assert.False(t, viaOCR)
}

func TestExtractFallsBackToOCR(t *testing.T) {
	empty := &fakeBackend{name: "empty"}
	ocr := &fakeOCR{text: "scanned text", available: true}
	f := NewFacade([]NativeBackend{empty, &fakeBackend{name: "empty2"}}, ocr)

	got, viaOCR := f.Extract(context.Background(), "x.pdf", Options{})
	assert.Equal(t, "scanned text", got)
	assert.True(t, viaOCR, "fallback text must be reported as OCR-produced")
	assert.Equal(t, 1, ocr.calls)
}

func TestExtractForceOCRSkipsNative(t *testing.T) {
	native := &fakeBackend{name: "native", text: "embedded"}
	ocr := &fakeOCR{text: "ocr text", available: true}
	f := NewFacade([]NativeBackend{native}, ocr)

	got, viaOCR := f.Extract(context.Background(), "x.pdf", Options{ForceOCR: true})
	assert.Equal(t, "ocr text", got)
	assert.True(t, viaOCR)
	assert.Zero(t, native.calls, "force-ocr must skip native extraction entirely")
}

func TestExtractForceOCRWithoutEngineUsesNative(t *testing.T) {
	native := &fakeBackend{name: "native", text: "embedded"}
	f := NewFacade([]NativeBackend{native}, &fakeOCR{available: false})

	got, viaOCR := f.Extract(context.Background(), "x.pdf", Options{ForceOCR: true})
	assert.Equal(t, "embedded", got)
	assert.False(t, viaOCR)
}

func TestExtractEmptyIsNotAnError(t *testing.T) {
	f := NewFacade([]NativeBackend{&fakeBackend{name: "empty"}}, &fakeOCR{available: true, err: errors.New("engine crashed")})

	got, _ := f.Extract(context.Background(), "x.pdf", Options{})
	assert.Empty(t, got)
}

func TestExtractIdempotent(t *testing.T) {
	native := &fakeBackend{name: "native", text: "same text"}
	f := NewFacade([]NativeBackend{native}, nil)

	a, _ := f.Extract(context.Background(), "x.pdf", Options{})
	b, _ := f.Extract(context.Background(), "x.pdf", Options{})
	assert.Equal(t, a, b)
}

func TestStripSpaces(t *testing.T) {
	assert.Equal(t, "甲方乙方\nline2", stripSpaces("甲 方 乙 方\nli ne2"))
}

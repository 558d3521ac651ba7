package row

import "testing"

func TestAppendAndAt(t *testing.T) {
	r := New(1)
	r.AppendInt(10)
	r.AppendText("hello")

	if r.Width() != 2 {
		t.Fatalf("expected width 2, got %d", r.Width())
	}
	c, err := r.At(1)
	if err != nil {
		t.Fatal(err)
	}
	text, err := c.AsText()
	if err != nil || text != "hello" {
		t.Fatalf("expected hello, got %q, %v", text, err)
	}
}

func TestAtOutOfRange(t *testing.T) {
	r := New(1)
	r.AppendInt(1)
	if _, err := r.At(5); err == nil {
		t.Fatal("expected ErrIndexOutOfRange")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	r := New(1)
	r.AppendInt(1)
	clone := r.Clone()
	clone.AppendInt(2)

	if r.Width() != 1 {
		t.Fatalf("original row mutated by clone append: width=%d", r.Width())
	}
	if clone.ID() != r.ID() {
		t.Fatal("clone must preserve id")
	}
}

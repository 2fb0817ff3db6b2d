package conn

import "testing"

func TestRecvBufferGrowAndConsume(t *testing.T) {
	b := NewRecvBuffer(4, 0)
	tail, err := b.Tail(4)
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	copy(tail, "abcd")
	b.CommitWrite(4)
	if b.Len() != 4 {
		t.Fatalf("expected len 4, got %d", b.Len())
	}
	if !b.Full() {
		t.Fatalf("expected buffer to report full after filling capacity")
	}

	tail2, err := b.Tail(4)
	if err != nil {
		t.Fatalf("Tail after growth: %v", err)
	}
	copy(tail2, "efgh")
	b.CommitWrite(4)
	if string(b.Bytes()) != "abcdefgh" {
		t.Fatalf("unexpected content: %q", b.Bytes())
	}

	b.Consume(3)
	if string(b.Bytes()) != "defgh" {
		t.Fatalf("unexpected content after consume: %q", b.Bytes())
	}
}

func TestRecvBufferLimit(t *testing.T) {
	b := NewRecvBuffer(4, 8)
	if _, err := b.Tail(4); err != nil {
		t.Fatalf("Tail within limit: %v", err)
	}
	b.CommitWrite(4)
	if _, err := b.Tail(8); err != ErrReceiveBufferLimitExceeded {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func TestSendQueueAppendSwapDrain(t *testing.T) {
	q := NewSendQueue(0)
	pending, err := q.Append([]byte("hello"))
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if pending != 5 {
		t.Fatalf("expected pending 5, got %d", pending)
	}
	if !q.Swap() {
		t.Fatalf("expected swap to succeed when flush is empty")
	}
	if q.FlushEmpty() {
		t.Fatalf("flush must not be empty right after swap")
	}
	rem := q.Remaining()
	if string(rem) != "hello" {
		t.Fatalf("unexpected flush contents: %q", rem)
	}
	q.Advance(5)
	if !q.FlushEmpty() {
		t.Fatalf("flush should be empty after advancing past its length")
	}
	if q.Pending() != 0 {
		t.Fatalf("expected 0 bytes pending, got %d", q.Pending())
	}
}

func TestSendQueueLimit(t *testing.T) {
	q := NewSendQueue(4)
	if _, err := q.Append([]byte("hello")); err != ErrSendBufferLimitExceeded {
		t.Fatalf("expected limit error, got %v", err)
	}
}

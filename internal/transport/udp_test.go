package transport_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/dak664/nanoresolv/internal/protocol"
	"github.com/dak664/nanoresolv/internal/transport"
)

func TestUDPTransport_ImplementsTransportInterface(_ *testing.T) {
	var _ transport.Transport = (*transport.UDPTransport)(nil)
}

func TestUDPv4Transport_Send_SendsToMulticastAddress(t *testing.T) {
	tr, err := transport.NewUDPv4Transport(protocol.Port)
	if err != nil {
		t.Fatalf("NewUDPv4Transport() failed: %v", err)
	}
	defer func() { _ = tr.Close() }()

	ctx := context.Background()
	packet := []byte{0x00, 0x00, 0x00, 0x00}
	mdnsAddr := &net.UDPAddr{IP: net.IPv4(224, 0, 0, 251), Port: protocol.Port}

	if err := tr.Send(ctx, packet, mdnsAddr); err != nil {
		t.Errorf("Send() failed: %v", err)
	}
}

func TestUDPv4Transport_Receive_RespectsContextCancellation(t *testing.T) {
	tr, err := transport.NewUDPv4Transport(0)
	if err != nil {
		t.Fatalf("NewUDPv4Transport() failed: %v", err)
	}
	defer func() { _ = tr.Close() }()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	start := time.Now()
	_, _, err = tr.Receive(ctx)
	duration := time.Since(start)

	if err == nil {
		t.Error("Receive() should return error when context is canceled")
	}
	if duration > 100*time.Millisecond {
		t.Errorf("Receive() took too long (%v) to detect cancellation", duration)
	}
}

func TestUDPv4Transport_Receive_PropagatesContextDeadline(t *testing.T) {
	tr, err := transport.NewUDPv4Transport(0)
	if err != nil {
		t.Fatalf("NewUDPv4Transport() failed: %v", err)
	}
	defer func() { _ = tr.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	if _, _, err := tr.Receive(ctx); err == nil {
		t.Error("Receive() with no traffic should time out")
	} else if time.Since(start) > 150*time.Millisecond {
		t.Errorf("Receive() took too long (%v) to time out, expected ~50ms", time.Since(start))
	}
}

func TestUDPv4Transport_Close_PropagatesErrors(t *testing.T) {
	tr, err := transport.NewUDPv4Transport(0)
	if err != nil {
		t.Fatalf("NewUDPv4Transport() failed: %v", err)
	}

	if err := tr.Close(); err != nil {
		t.Errorf("First Close() should succeed, got error: %v", err)
	}
	if err := tr.Close(); err == nil {
		t.Error("Second Close() should return error (socket already closed)")
	}
}

func TestBufferPool_GetReturns9000ByteBuffer(t *testing.T) {
	bufPtr := transport.GetBuffer()
	if bufPtr == nil {
		t.Fatal("GetBuffer() returned nil")
	}
	defer transport.PutBuffer(bufPtr)

	if buf := *bufPtr; len(buf) != 9000 {
		t.Errorf("GetBuffer() returned buffer of length %d, expected 9000", len(buf))
	}
}

func TestBufferPool_ReusesBuffers(t *testing.T) {
	bufPtr1 := transport.GetBuffer()
	buf1 := *bufPtr1
	buf1[0] = 0xAA
	transport.PutBuffer(bufPtr1)

	bufPtr2 := transport.GetBuffer()
	defer transport.PutBuffer(bufPtr2)
	if buf2 := *bufPtr2; len(buf2) != 9000 {
		t.Errorf("Reused buffer has length %d, expected 9000", len(buf2))
	}
}

func BenchmarkUDPv4Transport_ReceivePath(b *testing.B) {
	tr, err := transport.NewUDPv4Transport(0)
	if err != nil {
		b.Fatalf("NewUDPv4Transport() failed: %v", err)
	}
	defer func() { _ = tr.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Millisecond)
	defer cancel()

	b.ResetTimer()
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_, _, _ = tr.Receive(ctx)
	}
}

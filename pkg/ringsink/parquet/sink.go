// Package parquet drains a ringbuf.RingBuffer into a Parquet file: each
// consumed item becomes one row recording its type tag, payload length, a
// monotonic sequence number, and the payload bytes themselves. This does
// not make the ring itself durable; it is an external collaborator that
// drains the ring the same way any other consumer does, just one that
// happens to persist what it reads.
package parquet

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/local"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/source"
	"github.com/xitongsys/parquet-go/writer"

	ringbuffer "github.com/wangloo/ringbuffer/pkg/ringbuf"
)

// ItemRow is the on-disk row schema: one row per ring item.
type ItemRow struct {
	Sequence int64  `parquet:"name=sequence, type=INT64"`
	Type     int32  `parquet:"name=type, type=INT32"`
	Length   int32  `parquet:"name=length, type=INT32"`
	Payload  []byte `parquet:"name=payload, type=BYTE_ARRAY"`
}

// Sink drains a RingBuffer and appends each consumed item to a Parquet file.
type Sink struct {
	fw       source.ParquetFile
	pw       *writer.ParquetWriter
	sequence int64
}

// Open creates (or truncates) path and prepares it to receive rows via
// Drain. parallelism controls the writer's internal goroutine count per the
// parquet-go writer API; 1 is a reasonable default for a single drain loop.
func Open(path string, parallelism int64) (*Sink, error) {
	fw, err := local.NewLocalFileWriter(path)
	if err != nil {
		return nil, fmt.Errorf("ringsink/parquet: opening %q: %w", path, err)
	}

	pw, err := writer.NewParquetWriter(fw, new(ItemRow), parallelism)
	if err != nil {
		fw.Close()
		return nil, fmt.Errorf("ringsink/parquet: creating writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	return &Sink{fw: fw, pw: pw}, nil
}

// Drain consumes every item currently available in ring and appends one row
// per item. It returns the number of rows written.
func (s *Sink) Drain(ring *ringbuffer.RingBuffer) (int, error) {
	n := 0
	for {
		item, ok := ring.Consume()
		if !ok {
			return n, nil
		}

		row := ItemRow{
			Sequence: s.sequence,
			Type:     int32(item.Type()),
			Length:   int32(item.DataLength()),
			Payload:  append([]byte(nil), item.Data()...),
		}
		if err := s.pw.Write(row); err != nil {
			return n, fmt.Errorf("ringsink/parquet: writing row %d: %w", s.sequence, err)
		}
		s.sequence++
		n++
	}
}

// Close flushes any buffered rows and closes the underlying file. The Sink
// must not be used afterwards.
func (s *Sink) Close() error {
	if err := s.pw.WriteStop(); err != nil {
		s.fw.Close()
		return fmt.Errorf("ringsink/parquet: flushing writer: %w", err)
	}
	return s.fw.Close()
}

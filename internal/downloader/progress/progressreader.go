package progress

import "io"

// Reader wraps an io.Reader and reports cumulative progress through a
// callback every interval bytes and, when the total is known, every time the
// transfer crosses another step percent.
type Reader struct {
	reader     io.Reader
	total      int64
	onProgress func(read, total int64)

	interval   int64
	step       int64
	read       int64
	sinceLast  int64
	lastStepAt int64
}

// NewReader creates a progress reader. A non-positive interval disables the
// byte-based reports and a non-positive step disables the percentage ones.
func NewReader(r io.Reader, total, interval, step int64, cb func(read, total int64)) *Reader {
	return &Reader{
		reader:     r,
		total:      total,
		onProgress: cb,
		interval:   interval,
		step:       step,
	}
}

func (pr *Reader) Read(p []byte) (int, error) {
	n, err := pr.reader.Read(p)
	if n <= 0 {
		return n, err
	}

	pr.read += int64(n)
	pr.sinceLast += int64(n)

	report := pr.interval > 0 && pr.sinceLast >= pr.interval

	if pr.total > 0 && pr.step > 0 {
		if stepAt := pr.read * 100 / pr.total / pr.step; stepAt > pr.lastStepAt {
			pr.lastStepAt = stepAt
			report = true
		}
	}

	if report && pr.onProgress != nil {
		pr.onProgress(pr.read, pr.total)
		pr.sinceLast = 0
	}

	return n, err
}

// BytesRead returns the number of bytes read so far.
func (pr *Reader) BytesRead() int64 {
	return pr.read
}

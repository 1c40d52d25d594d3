package metrics

import "context"

type captureCounter struct {
	records [][]Label
}

func (c *captureCounter) Inc(ctx context.Context, labels ...Label) {
	c.records = append(c.records, append([]Label(nil), labels...))
}

func (c *captureCounter) Add(ctx context.Context, val float64, labels ...Label) {
	c.records = append(c.records, append([]Label(nil), labels...))
}

type captureHistogram struct {
	records [][]Label
}

func (h *captureHistogram) Record(ctx context.Context, val float64, labels ...Label) {
	h.records = append(h.records, append([]Label(nil), labels...))
}

func labelValue(labels []Label, key string) (string, bool) {
	for _, l := range labels {
		if l.Key == key {
			return l.Value, true
		}
	}
	return "", false
}

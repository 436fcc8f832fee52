package progress

// sampler thins progress logging to one record per bucket of the combined
// percentage, plus one whenever the pass changes.
type sampler struct {
	bucket     int
	lastPass   string
	lastBucket int
}

func newSampler(bucket int) *sampler {
	if bucket <= 0 {
		bucket = 10
	}
	return &sampler{bucket: bucket, lastBucket: -1}
}

func (s *sampler) due(u Update) bool {
	emit := false
	if u.Pass != s.lastPass {
		s.lastPass = u.Pass
		emit = true
	}
	if b := min(max(u.Percent, 0), 100) / s.bucket; b > s.lastBucket {
		s.lastBucket = b
		emit = true
	}
	return emit
}

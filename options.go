package malscan

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	classifierPath string
	vectorizerPath string
	threshold      float64
	eagerLoad      bool
}

func defaultClientConfig() *clientConfig {
	return &clientConfig{
		classifierPath: "models/classifier.json",
		vectorizerPath: "models/vectorizer.json",
		threshold:      0.5,
	}
}

// WithArtifacts sets the classifier and vectorizer artifact paths.
func WithArtifacts(classifierPath, vectorizerPath string) Option {
	return optionFunc(func(c *clientConfig) {
		c.classifierPath = classifierPath
		c.vectorizerPath = vectorizerPath
	})
}

// WithThreshold sets the decision boundary in (0, 1]. A probability equal
// to the threshold classifies as malicious.
func WithThreshold(threshold float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.threshold = threshold
	})
}

// WithEagerLoad loads and validates the artifacts inside New instead of on
// the first scoring call.
func WithEagerLoad() Option {
	return optionFunc(func(c *clientConfig) {
		c.eagerLoad = true
	})
}

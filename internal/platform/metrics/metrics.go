package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Set holds the counters for the key management core. Construct one per
// process with a real registerer, or with a throwaway registry in tests.
type Set struct {
	KeyPairsGenerated prometheus.Counter
	PublishFailures   prometheus.Counter
	CacheHits         prometheus.Counter
	CacheMisses       prometheus.Counter
	DirectoryFetches  *prometheus.CounterVec
	EncryptOps        prometheus.Counter
	DecryptFailures   prometheus.Counter
}

func New(reg prometheus.Registerer) *Set {
	factory := promauto.With(reg)
	return &Set{
		KeyPairsGenerated: factory.NewCounter(prometheus.CounterOpts{
			Name: "gigchat_keypairs_generated_total",
			Help: "Fresh X25519 key pairs generated on first use.",
		}),
		PublishFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gigchat_key_publish_failures_total",
			Help: "Directory publish attempts that failed.",
		}),
		CacheHits: factory.NewCounter(prometheus.CounterOpts{
			Name: "gigchat_pubkey_cache_hits_total",
			Help: "Recipient public key lookups served from the local cache.",
		}),
		CacheMisses: factory.NewCounter(prometheus.CounterOpts{
			Name: "gigchat_pubkey_cache_misses_total",
			Help: "Recipient public key lookups that fell through to the directory.",
		}),
		DirectoryFetches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "gigchat_directory_fetches_total",
			Help: "Directory fetches by outcome.",
		}, []string{"result"}),
		EncryptOps: factory.NewCounter(prometheus.CounterOpts{
			Name: "gigchat_messages_encrypted_total",
			Help: "Messages sealed by the cipher.",
		}),
		DecryptFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "gigchat_message_decrypt_failures_total",
			Help: "Envelopes that failed authentication or version checks.",
		}),
	}
}

// Directory fetch result label values.
const (
	FetchHit    = "hit"
	FetchAbsent = "absent"
	FetchError  = "error"
)

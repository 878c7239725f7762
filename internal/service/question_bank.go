package service

import (
	"fmt"

	"github.com/lshigami/Mockingbird/internal/model"
)

// bankEntry is one static template used when the model backend is unavailable.
type bankEntry struct {
	Text           string
	ExpectedAnswer string
	Hints          []string
	Criteria       []string
	Tags           []string
}

// questionBank holds the deterministic fallback questions per concrete type.
var questionBank = map[string][]bankEntry{
	model.TypeBehavioral: {
		{
			Text:           "Tell me about a time you had to deliver a project under a tight deadline. What did you do?",
			ExpectedAnswer: "A STAR-structured story: concrete situation, the candidate's own actions to prioritize and communicate, and a measurable outcome.",
			Hints:          []string{"Use the STAR structure.", "Focus on what you personally did, not the team."},
			Criteria:       []string{"Situation and task are clear", "Actions are specific and owned", "Result is quantified"},
			Tags:           []string{"deadline", "prioritization"},
		},
		{
			Text:           "Describe a situation where you disagreed with a teammate on a technical decision. How was it resolved?",
			ExpectedAnswer: "Shows respectful disagreement, data-driven argumentation and a resolution the candidate committed to.",
			Hints:          []string{"Explain both positions fairly.", "What did you learn from the outcome?"},
			Criteria:       []string{"Situation and task are clear", "Handles conflict constructively", "Result is quantified"},
			Tags:           []string{"conflict", "collaboration"},
		},
		{
			Text:           "Tell me about a time you failed. What happened and what did you change afterwards?",
			ExpectedAnswer: "Honest ownership of a real failure, root-cause reflection and a concrete behavior change.",
			Hints:          []string{"Pick a real failure, not a disguised success.", "End with what you do differently now."},
			Criteria:       []string{"Ownership of the failure", "Depth of reflection", "Concrete change afterwards"},
			Tags:           []string{"failure", "growth"},
		},
		{
			Text:           "Describe a time you had to bring a struggling project back on track.",
			ExpectedAnswer: "Diagnosis of why the project was off-track, specific corrective actions and the recovered outcome.",
			Hints:          []string{"Start with how you noticed the problem.", "What tradeoffs did you make to recover?"},
			Criteria:       []string{"Situation and task are clear", "Actions are specific and owned", "Result is quantified"},
			Tags:           []string{"recovery", "leadership"},
		},
		{
			Text:           "Tell me about a time you mentored someone. How did you adapt your approach to them?",
			ExpectedAnswer: "Shows deliberate mentoring technique adapted to the mentee and evidence the mentee improved.",
			Hints:          []string{"Describe the mentee's starting point.", "How did you measure their progress?"},
			Criteria:       []string{"Adapts approach to the person", "Actions are specific and owned", "Result is quantified"},
			Tags:           []string{"mentoring", "communication"},
		},
		{
			Text:           "Describe a situation where requirements changed late in a project. How did you respond?",
			ExpectedAnswer: "Calm re-planning, stakeholder communication and a pragmatic scope decision.",
			Hints:          []string{"Who did you talk to first?", "What did you cut or defer, and why?"},
			Criteria:       []string{"Stakeholder communication", "Pragmatic re-planning", "Result is quantified"},
			Tags:           []string{"change", "scope"},
		},
		{
			Text:           "Tell me about the piece of work you are most proud of and why.",
			ExpectedAnswer: "A story showing impact, the candidate's specific contribution and honest acknowledgment of help received.",
			Hints:          []string{"Explain why it mattered to the business.", "Be specific about your own contribution."},
			Criteria:       []string{"Clear impact", "Specific personal contribution", "Self-awareness"},
			Tags:           []string{"impact", "motivation"},
		},
	},
	model.TypeTechnical: {
		{
			Text:           "Explain the difference between concurrency and parallelism, with an example of each.",
			ExpectedAnswer: "Concurrency is structuring a program as independently progressing tasks; parallelism is executing tasks simultaneously. Examples: async request handling vs. data processing across cores.",
			Hints:          []string{"Think about one core versus many cores.", "A web server handling many connections is a good example."},
			Criteria:       []string{"Technical accuracy", "Depth of understanding", "Clarity of explanation"},
			Tags:           []string{"concurrency", "fundamentals"},
		},
		{
			Text:           "What happens, step by step, when you type a URL into a browser and press enter?",
			ExpectedAnswer: "DNS resolution, TCP/TLS handshake, HTTP request, server processing, response, rendering. Depth in any one stage is a plus.",
			Hints:          []string{"Start with how the hostname becomes an IP address.", "Do not forget TLS."},
			Criteria:       []string{"Technical accuracy", "Completeness of the pipeline", "Clarity of explanation"},
			Tags:           []string{"networking", "web"},
		},
		{
			Text:           "How does an index speed up a database query, and when can an index hurt performance?",
			ExpectedAnswer: "B-tree lookup versus full scan; indexes cost write amplification and storage, and the planner may ignore unhelpful ones.",
			Hints:          []string{"Compare to finding a word in a book.", "What happens on every INSERT?"},
			Criteria:       []string{"Technical accuracy", "Covers the write-path cost", "Clarity of explanation"},
			Tags:           []string{"databases", "performance"},
		},
		{
			Text:           "Explain how a hash table works and what makes a good hash function.",
			ExpectedAnswer: "Buckets, collision handling (chaining/open addressing), load factor and resizing; uniform distribution and speed for the hash function.",
			Hints:          []string{"What happens when two keys land in the same bucket?", "Why does a table resize?"},
			Criteria:       []string{"Technical accuracy", "Covers collisions and resizing", "Clarity of explanation"},
			Tags:           []string{"data-structures", "fundamentals"},
		},
		{
			Text:           "What is the difference between optimistic and pessimistic locking? When would you choose each?",
			ExpectedAnswer: "Pessimistic blocks up front, optimistic validates at commit; choice depends on contention and cost of retries.",
			Hints:          []string{"Think about how often writers actually conflict.", "What does a retry cost?"},
			Criteria:       []string{"Technical accuracy", "Tradeoff reasoning", "Clarity of explanation"},
			Tags:           []string{"concurrency", "databases"},
		},
		{
			Text:           "Describe how HTTP caching works: what do Cache-Control, ETag and 304 responses do?",
			ExpectedAnswer: "Freshness via Cache-Control/max-age, validation via ETag/If-None-Match producing 304s, and where caches live.",
			Hints:          []string{"Separate freshness from validation.", "Who can hold a cached copy?"},
			Criteria:       []string{"Technical accuracy", "Depth of understanding", "Clarity of explanation"},
			Tags:           []string{"web", "caching"},
		},
		{
			Text:           "What is eventual consistency and what anomalies can a client observe under it?",
			ExpectedAnswer: "Replicas converge over time; clients may see stale reads, out-of-order updates or their own writes missing without session guarantees.",
			Hints:          []string{"Think about reading from a lagging replica.", "What is read-your-writes?"},
			Criteria:       []string{"Technical accuracy", "Concrete anomaly examples", "Clarity of explanation"},
			Tags:           []string{"distributed-systems", "consistency"},
		},
		{
			Text:           "Explain the difference between processes and threads, including what is shared between threads.",
			ExpectedAnswer: "Separate address spaces vs shared memory within a process; threads share heap and globals but have their own stacks.",
			Hints:          []string{"What does a context switch cost in each case?", "What memory do threads share?"},
			Criteria:       []string{"Technical accuracy", "Depth of understanding", "Clarity of explanation"},
			Tags:           []string{"operating-systems", "fundamentals"},
		},
		{
			Text:           "How does garbage collection work in a managed runtime, and what tradeoffs do collectors make?",
			ExpectedAnswer: "Reachability from roots, generational or mark-sweep strategies, and the throughput/latency/memory triangle.",
			Hints:          []string{"Start with how the runtime knows an object is dead.", "Why do pauses happen?"},
			Criteria:       []string{"Technical accuracy", "Tradeoff reasoning", "Clarity of explanation"},
			Tags:           []string{"runtime", "memory"},
		},
		{
			Text:           "What are database transactions and what do the ACID properties guarantee?",
			ExpectedAnswer: "Atomic all-or-nothing units, consistency of invariants, isolation levels and their anomalies, durability via WAL.",
			Hints:          []string{"What can go wrong without isolation?", "How does the database survive a crash mid-commit?"},
			Criteria:       []string{"Technical accuracy", "Covers isolation anomalies", "Clarity of explanation"},
			Tags:           []string{"databases", "transactions"},
		},
		{
			Text:           "Explain what a message queue buys you over a direct HTTP call between services.",
			ExpectedAnswer: "Decoupling, buffering under load, retry semantics, at-least-once delivery and its duplicate-handling consequences.",
			Hints:          []string{"What happens when the consumer is down?", "What new failure modes does the queue add?"},
			Criteria:       []string{"Technical accuracy", "Tradeoff reasoning", "Clarity of explanation"},
			Tags:           []string{"messaging", "architecture"},
		},
		{
			Text:           "What is the N+1 query problem and how do you fix it?",
			ExpectedAnswer: "One query per parent row instead of a join or batched IN query; fixes via eager loading, joins or dataloaders.",
			Hints:          []string{"Think about rendering a list with a child lookup per row.", "How would an ORM hide this from you?"},
			Criteria:       []string{"Technical accuracy", "Concrete fix proposed", "Clarity of explanation"},
			Tags:           []string{"databases", "orm"},
		},
	},
	model.TypeCoding: {
		{
			Text:           "Implement a function that returns the first non-repeating character in a string, or none if there is no such character. Explain its complexity.",
			ExpectedAnswer: "Two passes with a frequency map: O(n) time, O(k) space over the alphabet.",
			Hints:          []string{"Count occurrences first.", "A second pass preserves original order."},
			Criteria:       []string{"Correctness", "Complexity analysis", "Readability"},
			Tags:           []string{"strings", "hash-map"},
		},
		{
			Text:           "Write a function that merges two sorted slices into one sorted slice without using a sort routine.",
			ExpectedAnswer: "Two-pointer merge in O(n+m) time, handling tails and empty inputs.",
			Hints:          []string{"Keep one index per input.", "What remains when one input is exhausted?"},
			Criteria:       []string{"Correctness", "Edge-case handling", "Readability"},
			Tags:           []string{"arrays", "two-pointers"},
		},
		{
			Text:           "Implement a rate limiter that allows at most N operations per rolling minute per key.",
			ExpectedAnswer: "Sliding window of timestamps or token bucket per key, with eviction of expired entries and a note on concurrency.",
			Hints:          []string{"What state do you keep per key?", "How do old entries get cleaned up?"},
			Criteria:       []string{"Correctness", "Concurrency awareness", "Complexity analysis"},
			Tags:           []string{"design", "concurrency"},
		},
		{
			Text:           "Given a slice of intervals, write a function that merges all overlapping intervals.",
			ExpectedAnswer: "Sort by start, sweep and extend the current interval: O(n log n).",
			Hints:          []string{"Sort first.", "When does the current interval close?"},
			Criteria:       []string{"Correctness", "Complexity analysis", "Readability"},
			Tags:           []string{"intervals", "sorting"},
		},
		{
			Text:           "Implement an LRU cache with O(1) get and put.",
			ExpectedAnswer: "Hash map into a doubly-linked list; move-to-front on access, evict from the tail.",
			Hints:          []string{"Which structure gives O(1) reordering?", "What does the map point at?"},
			Criteria:       []string{"Correctness", "Complexity analysis", "Readability"},
			Tags:           []string{"cache", "data-structures"},
		},
	},
	model.TypeSystemDesign: {
		{
			Text:           "Design a URL shortener that handles 100 million new links per month. Cover storage, key generation and redirects at scale.",
			ExpectedAnswer: "Capacity estimation, base62 keys from a counter or hash with collision policy, cache in front of the store, 301 vs 302 tradeoff.",
			Hints:          []string{"Estimate reads versus writes first.", "How do you avoid key collisions?"},
			Criteria:       []string{"Requirements clarification", "Scalability", "Tradeoff analysis"},
			Tags:           []string{"storage", "caching"},
		},
		{
			Text:           "Design a real-time chat system supporting one-to-one and group conversations for millions of users.",
			ExpectedAnswer: "Persistent connections (websockets), fan-out strategy per conversation size, message ordering and delivery guarantees, offline inbox.",
			Hints:          []string{"How does a message reach a user on another server?", "What happens when a recipient is offline?"},
			Criteria:       []string{"Requirements clarification", "Scalability", "Tradeoff analysis"},
			Tags:           []string{"realtime", "messaging"},
		},
		{
			Text:           "Design a metrics ingestion pipeline collecting measurements from 50k servers with near-real-time dashboards.",
			ExpectedAnswer: "Agent batching, ingestion tier with a queue, time-series storage with downsampling, query path separate from write path.",
			Hints:          []string{"What resolution do dashboards actually need?", "Where do you absorb write bursts?"},
			Criteria:       []string{"Requirements clarification", "Scalability", "Tradeoff analysis"},
			Tags:           []string{"pipeline", "time-series"},
		},
	},
}

// fallbackQuestions slices the static bank into canonical Questions. It still
// honors the requested count where the bank allows, and every entry is tagged
// as fallback so callers can observe the degradation.
func fallbackQuestions(concreteType, difficulty string, count int) []model.Question {
	bank := questionBank[concreteType]
	if count > len(bank) {
		count = len(bank)
	}

	questions := make([]model.Question, 0, count)
	for i := 0; i < count; i++ {
		entry := bank[i]
		questions = append(questions, model.Question{
			QuestionKey:        fmt.Sprintf("q%d", i+1),
			Text:               entry.Text,
			Type:               concreteType,
			Difficulty:         difficulty,
			ExpectedAnswer:     entry.ExpectedAnswer,
			Hints:              entry.Hints,
			EvaluationCriteria: entry.Criteria,
			Tags:               entry.Tags,
			TimeLimitSeconds:   timeLimitSeconds[concreteType],
			MaxHints:           len(entry.Hints),
			Skippable:          i > 0,
			OrderInRound:       i + 1,
			IsFallback:         true,
		})
	}
	return questions
}

package ingest

import (
	"strings"

	"github.com/jersy/ariadne/internal/graphstore"
)

// externalDepPatterns maps a toFQN prefix to the ExternalDependency type it
// identifies. Matched against the *raw*, unfiltered call list — most of
// these prefixes (the Spring template classes, org.apache.*) fall under
// frameworkPrefixes and would never survive IsFrameworkCall, so
// classification happens before that filter, not after it.
var externalDepPatterns = []struct {
	prefix string
	typ    string
}{
	{"org.springframework.data.redis.core.RedisTemplate", "redis"},
	{"org.springframework.data.redis.core.StringRedisTemplate", "redis"},
	{"org.springframework.data.redis.core.ValueOperations", "redis"},
	{"org.springframework.data.redis.core.HashOperations", "redis"},
	{"org.springframework.data.redis.core.ListOperations", "redis"},
	{"org.springframework.data.redis.core.SetOperations", "redis"},
	{"org.springframework.data.redis.core.ZSetOperations", "redis"},
	{"redis.clients.jedis.Jedis", "redis"},
	{"io.lettuce.core.RedisClient", "redis"},
	{"org.springframework.amqp.core.AmqpTemplate", "mq"},
	{"org.springframework.amqp.rabbit.core.RabbitTemplate", "mq"},
	{"org.springframework.kafka.core.KafkaTemplate", "mq"},
	{"org.springframework.jms.core.JmsTemplate", "mq"},
	{"com.rabbitmq.client.Channel", "mq"},
	{"org.springframework.web.client.RestTemplate", "http"},
	{"org.springframework.web.reactive.function.client.WebClient", "http"},
	{"org.apache.http.client.HttpClient", "http"},
	{"okhttp3.OkHttpClient", "http"},
	{"java.net.HttpURLConnection", "http"},
	{"org.apache.dubbo", "rpc"},
	{"io.grpc", "rpc"},
	{"com.alibaba.dubbo", "rpc"},
}

// Graph is the set of graph-store entities produced by Transform, ready to
// be inserted by whichever store (shadow or live) is driving the ingest.
type Graph struct {
	Symbols      []graphstore.Symbol
	Edges        []graphstore.Edge
	EntryPoints  []graphstore.EntryPoint
	ExternalDeps []graphstore.ExternalDependency
}

// Transform converts the analyzer's class records into graph-store
// entities. External-dependency classification runs against every call
// before the framework-prefix filter from 4.L is applied; the filter then
// drops framework-namespace calls from the edge set.
func Transform(classes []ClassRecord) Graph {
	var g Graph

	for _, cls := range classes {
		g.Symbols = append(g.Symbols, graphstore.Symbol{
			FQN:         cls.FQN,
			Kind:        classKind(cls.Type),
			Name:        lastSegment(cls.FQN),
			FilePath:    cls.FilePath,
			LineNumber:  cls.LineNumber,
			ParentFQN:   cls.ParentFQN,
			Modifiers:   cls.Modifiers,
			Annotations: cls.Annotations,
		})

		for _, parent := range cls.Inheritance {
			if IsFrameworkCall(parent) {
				continue
			}
			g.Edges = append(g.Edges, graphstore.Edge{FromFQN: cls.FQN, ToFQN: parent, Relation: "inherits"})
		}

		for _, f := range cls.Fields {
			g.Symbols = append(g.Symbols, graphstore.Symbol{
				FQN: f.FQN, Kind: "field", Name: f.Name, LineNumber: f.Line,
				ParentFQN: cls.FQN, Modifiers: f.Modifiers,
			})
			g.Edges = append(g.Edges, graphstore.Edge{FromFQN: f.FQN, ToFQN: cls.FQN, Relation: "member_of"})
		}

		for _, m := range cls.Methods {
			annotations := m.Annotations
			if m.IsMybatisBaseMapper {
				// Tags the method symbol. isDAOTarget (4.K) reads only the
				// target's class name and its parent class symbol's
				// annotations, so this method-level tag does not by itself
				// make a call a controller-dao finding.
				annotations = append(append([]string{}, annotations...), "MybatisBaseMapper")
			}
			g.Symbols = append(g.Symbols, graphstore.Symbol{
				FQN: m.FQN, Kind: "method", Name: lastSegment(m.FQN), LineNumber: m.Line,
				Signature: m.Signature, ParentFQN: cls.FQN, Modifiers: m.Modifiers, Annotations: annotations,
			})
			g.Edges = append(g.Edges, graphstore.Edge{FromFQN: m.FQN, ToFQN: cls.FQN, Relation: "member_of"})

			if m.IsRestEndpoint || m.IsEntryPoint {
				et := entryPointType(m)
				httpPath := m.APIPath
				if et == "http_api" {
					httpPath = buildHTTPPath(cls.ClassBasePath, m)
				}
				g.EntryPoints = append(g.EntryPoints, graphstore.EntryPoint{
					SymbolFQN: m.FQN, Type: et, HTTPMethod: m.HTTPMethod, HTTPPath: httpPath,
				})
			}
			if m.IsScheduled {
				cron := m.ScheduledCron
				if cron == "" {
					cron = m.Attributes["scheduled_cron"]
				}
				g.EntryPoints = append(g.EntryPoints, graphstore.EntryPoint{
					SymbolFQN: m.FQN, Type: "scheduled", Cron: cron,
				})
			}
			if queue, ok := mqListenerQueue(m); ok {
				g.EntryPoints = append(g.EntryPoints, graphstore.EntryPoint{
					SymbolFQN: m.FQN, Type: "mq_consumer", MQQueue: queue,
				})
			}

			for _, call := range m.Calls {
				// External-dependency classification runs against the raw
				// call regardless of framework filtering: the Spring
				// client classes it matches (RedisTemplate, KafkaTemplate,
				// RestTemplate, ...) live under org.springframework./
				// org.apache. namespaces that frameworkPrefixes drops.
				if depType, strength := classifyExternalDep(call); depType != "" {
					g.ExternalDeps = append(g.ExternalDeps, graphstore.ExternalDependency{
						CallerFQN: m.FQN, Type: depType, Target: call.ToFQN, Strength: strength,
					})
				}

				if IsFrameworkCall(call.ToFQN) {
					continue
				}
				kind := call.Kind
				if kind == "" {
					kind = "calls"
				}
				g.Edges = append(g.Edges, graphstore.Edge{FromFQN: m.FQN, ToFQN: call.ToFQN, Relation: kind})
			}
		}
	}

	return g
}

func classKind(t string) string {
	switch t {
	case "interface":
		return "interface"
	default:
		return "class"
	}
}

func entryPointType(m MethodRecord) string {
	if m.EntryPointType != "" {
		return m.EntryPointType
	}
	if m.IsRestEndpoint {
		return "http_api"
	}
	return "http_api"
}

// buildHTTPPath composes a method's HTTP path with its class's base path,
// mirroring EntryDetector._build_http_path: if the method path already
// carries the class prefix it's returned as-is, otherwise the two are
// joined on a single slash.
func buildHTTPPath(classBasePath string, m MethodRecord) string {
	methodPath := m.APIPath

	if classBasePath != "" && strings.HasPrefix(methodPath, classBasePath) {
		return methodPath
	}

	base := strings.TrimSuffix(classBasePath, "/")
	path := strings.TrimPrefix(methodPath, "/")

	switch {
	case base != "" && path != "":
		return base + "/" + path
	case base != "":
		return base
	case path != "":
		return "/" + path
	default:
		return "/"
	}
}

// mqConsumerAnnotations names the listener annotations that independently
// mark a method as an MQ entry point, regardless of what entryPointType
// the analyzer may have passed through.
var mqConsumerAnnotations = []string{"RabbitListener", "KafkaListener", "JmsListener"}

// mqListenerQueue reports whether m carries a message-listener annotation
// and, if so, the queue name from its attributes (when the analyzer
// captured one).
func mqListenerQueue(m MethodRecord) (queue string, ok bool) {
	for _, a := range m.Annotations {
		for _, listener := range mqConsumerAnnotations {
			if strings.Contains(a, listener) {
				return m.Attributes["queue"], true
			}
		}
	}
	return "", false
}

func classifyExternalDep(call CallRecord) (depType, strength string) {
	if call.IsMybatisBaseMapper || isMapperCall(call.ToFQN) {
		return "mysql", "strong"
	}
	for _, p := range externalDepPatterns {
		if strings.HasPrefix(call.ToFQN, p.prefix) {
			if p.typ == "http" {
				return p.typ, "weak"
			}
			return p.typ, "strong"
		}
	}
	return "", ""
}

// isMapperCall recognizes MyBatis Mapper interface calls by the common
// Mapper/Dao class-naming convention, for ASM output that doesn't carry the
// isMybatisBaseMapperCall flag.
func isMapperCall(toFQN string) bool {
	class := toFQN
	if i := strings.LastIndex(class, "#"); i >= 0 {
		class = class[:i]
	}
	class = lastSegment(class)
	return strings.HasSuffix(class, "Mapper") || strings.HasSuffix(class, "Dao")
}

func lastSegment(fqn string) string {
	if i := strings.LastIndexAny(fqn, ".#"); i >= 0 && i+1 < len(fqn) {
		return fqn[i+1:]
	}
	return fqn
}

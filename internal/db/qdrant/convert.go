package qdrant

import (
	"fmt"

	pb "github.com/qdrant/go-client/qdrant"

	"github.com/kailas-cloud/tripdex/internal/domain"
	"github.com/kailas-cloud/tripdex/internal/domain/point"
	"github.com/kailas-cloud/tripdex/internal/domain/search/filter"
)

func toPointStruct(p point.Point) (*pb.PointStruct, error) {
	if p.ID == "" {
		return nil, fmt.Errorf("point id is required: %w", domain.ErrInvalidInput)
	}
	if len(p.Vector) == 0 {
		return nil, fmt.Errorf("vector is required: %w", domain.ErrInvalidInput)
	}
	payload, err := pb.TryValueMap(p.Payload.Map())
	if err != nil {
		return nil, fmt.Errorf("payload: %w: %w", domain.ErrInvalidInput, err)
	}
	return &pb.PointStruct{
		Id:      pb.NewID(p.ID),
		Vectors: pb.NewVectorsDense(p.Vector),
		Payload: payload,
	}, nil
}

func toPointIDs(ids []string) []*pb.PointId {
	out := make([]*pb.PointId, len(ids))
	for i, id := range ids {
		out[i] = pb.NewID(id)
	}
	return out
}

func denseVector(v *pb.VectorsOutput) []float32 {
	vo := v.GetVector()
	if vo == nil {
		return nil
	}
	if d := vo.GetDense(); d != nil {
		return d.GetData()
	}
	return vo.GetData() //nolint:staticcheck // older servers only fill the deprecated field
}

func fromValueMap(m map[string]*pb.Value) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = fromValue(v)
	}
	return out
}

func fromValue(v *pb.Value) any {
	switch k := v.GetKind().(type) {
	case *pb.Value_StringValue:
		return k.StringValue
	case *pb.Value_DoubleValue:
		return k.DoubleValue
	case *pb.Value_IntegerValue:
		return k.IntegerValue
	case *pb.Value_BoolValue:
		return k.BoolValue
	case *pb.Value_ListValue:
		vals := k.ListValue.GetValues()
		list := make([]any, len(vals))
		for i, item := range vals {
			list[i] = fromValue(item)
		}
		return list
	case *pb.Value_StructValue:
		return fromValueMap(k.StructValue.GetFields())
	default:
		return nil
	}
}

func toFilter(e filter.Expression) *pb.Filter {
	f := &pb.Filter{}
	for _, c := range e.Must() {
		f.Must = append(f.Must, toCondition(c))
	}
	for _, c := range e.MustNot() {
		f.MustNot = append(f.MustNot, toCondition(c))
	}
	return f
}

func toCondition(c filter.Condition) *pb.Condition {
	switch c.Kind() {
	case filter.KindMatch:
		return pb.NewMatch(c.Key(), c.Match())
	case filter.KindMatchBool:
		return pb.NewMatchBool(c.Key(), c.MatchBool())
	case filter.KindMatchAny:
		return pb.NewMatchKeywords(c.Key(), c.AnyOf()...)
	case filter.KindRange:
		r := c.Range()
		return pb.NewRange(c.Key(), &pb.Range{Gt: r.GT(), Gte: r.GTE(), Lt: r.LT(), Lte: r.LTE()})
	case filter.KindGeoRadius:
		g := c.Geo()
		return pb.NewGeoRadius(c.Key(), g.Lat(), g.Lon(), float32(g.RadiusMeters()))
	default:
		return nil
	}
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/headwaycms/headway/internal/content"
)

// Mongo is a MongoDB-backed content store. One database holds the
// nodes/media/terms/menus/options collections; lookups key on the stable
// integer ids carried over from the authoring system.
type Mongo struct {
	nodes     *mongo.Collection
	media     *mongo.Collection
	terms     *mongo.Collection
	nodeTerms *mongo.Collection
	taxos     *mongo.Collection
	fields    *mongo.Collection
	menus     *mongo.Collection
	opts      *mongo.Collection
	optFields *mongo.Collection
	meta      *mongo.Collection
}

// ConnectMongo opens a connection and returns the client. Caller should call
// client.Disconnect(ctx).
func ConnectMongo(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	return client, nil
}

func NewMongo(db *mongo.Database) *Mongo {
	m := &Mongo{
		nodes:     db.Collection("nodes"),
		media:     db.Collection("media"),
		terms:     db.Collection("terms"),
		nodeTerms: db.Collection("node_terms"),
		taxos:     db.Collection("taxonomies"),
		fields:    db.Collection("field_schemas"),
		menus:     db.Collection("menus"),
		opts:      db.Collection("options"),
		optFields: db.Collection("option_fields"),
		meta:      db.Collection("node_meta"),
	}
	// unique id indexes for the hot lookup paths
	ctx := context.Background()
	for _, col := range []*mongo.Collection{m.nodes, m.media, m.terms} {
		idx := mongo.IndexModel{Keys: bson.D{{Key: "id", Value: 1}}, Options: options.Index().SetUnique(true)}
		_, _ = col.Indexes().CreateOne(ctx, idx)
	}
	_, _ = m.nodes.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "path", Value: 1}}})
	_, _ = m.nodes.Indexes().CreateOne(ctx, mongo.IndexModel{Keys: bson.D{{Key: "parent_id", Value: 1}, {Key: "type", Value: 1}}})
	return m
}

func (m *Mongo) NodeByID(ctx context.Context, id int) (*content.Node, error) {
	var n content.Node
	err := m.nodes.FindOne(ctx, bson.M{"id": id}).Decode(&n)
	if err != nil {
		return nil, mapErr(err)
	}
	return &n, nil
}

func (m *Mongo) NodeByPath(ctx context.Context, path string, types []string) (*content.Node, error) {
	filter := bson.M{"path": "/" + strings.Trim(path, "/")}
	if len(types) > 0 {
		filter["type"] = bson.M{"$in": types}
	}
	var n content.Node
	if err := m.nodes.FindOne(ctx, filter).Decode(&n); err != nil {
		return nil, mapErr(err)
	}
	return &n, nil
}

func (m *Mongo) QueryNodes(ctx context.Context, f content.Filter) (*content.NodeList, error) {
	filter := bson.M{}
	if f.Type != "" {
		filter["type"] = f.Type
	}
	if f.ParentID != nil {
		filter["parent_id"] = *f.ParentID
	}
	if f.TermSlug != "" {
		ids, err := m.nodeIDsByTermSlug(ctx, f.TermSlug)
		if err != nil {
			return nil, err
		}
		filter["id"] = bson.M{"$in": ids}
	}
	if len(f.Slugs) > 0 {
		filter["slug"] = bson.M{"$in": f.Slugs}
	}
	if len(f.Statuses) > 0 {
		filter["status"] = bson.M{"$in": f.Statuses}
	}
	if f.Search != "" {
		re := primitive.Regex{Pattern: regexp.QuoteMeta(f.Search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"title": re},
			bson.M{"content": re},
			bson.M{"excerpt": re},
		}
	}
	return m.findNodes(ctx, filter, f.OrderBy, f.OrderDir, f.Page, f.PerPage)
}

func (m *Mongo) Children(ctx context.Context, q content.ChildrenQuery) (*content.NodeList, error) {
	filter := bson.M{"parent_id": q.ParentID}
	if q.Type != "" {
		filter["type"] = q.Type
	}
	if len(q.Statuses) > 0 {
		filter["status"] = bson.M{"$in": q.Statuses}
	}
	return m.findNodes(ctx, filter, q.OrderBy, q.OrderDir, q.Page, q.PerPage)
}

func (m *Mongo) findNodes(ctx context.Context, filter bson.M, orderBy, orderDir string, page, perPage int) (*content.NodeList, error) {
	total, err := m.nodes.CountDocuments(ctx, filter)
	if err != nil {
		return nil, mapErr(err)
	}
	dir := 1
	if strings.EqualFold(orderDir, content.OrderDesc) {
		dir = -1
	}
	key := orderBy
	switch orderBy {
	case content.OrderByMenuOrder, content.OrderByTitle, content.OrderBySlug, content.OrderByModified, content.OrderByID:
	default:
		key = content.OrderByDate
	}
	opts := options.Find().SetSort(bson.D{{Key: key, Value: dir}, {Key: "id", Value: dir}})
	totalPages := 1
	if perPage > 0 {
		if page < 1 {
			page = 1
		}
		opts = opts.SetSkip(int64((page - 1) * perPage)).SetLimit(int64(perPage))
		totalPages = int(math.Ceil(float64(total) / float64(perPage)))
	}
	cur, err := m.nodes.Find(ctx, filter, opts)
	if err != nil {
		return nil, mapErr(err)
	}
	defer cur.Close(ctx)
	var items []*content.Node
	for cur.Next(ctx) {
		var n content.Node
		if err := cur.Decode(&n); err != nil {
			return nil, mapErr(err)
		}
		items = append(items, &n)
	}
	return &content.NodeList{Items: items, Total: int(total), TotalPages: totalPages}, nil
}

func (m *Mongo) Ancestors(ctx context.Context, id int) ([]*content.Node, error) {
	n, err := m.NodeByID(ctx, id)
	if err != nil {
		return nil, err
	}
	var chain []*content.Node
	seen := map[int]bool{id: true}
	for n.ParentID != 0 && !seen[n.ParentID] {
		p, err := m.NodeByID(ctx, n.ParentID)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				break
			}
			return nil, err
		}
		seen[p.ID] = true
		chain = append(chain, p)
		n = p
	}
	return chain, nil
}

func (m *Mongo) FieldSchemas(ctx context.Context, objectID int) (map[string]content.FieldSchema, error) {
	var doc struct {
		Fields map[string]content.FieldSchema `bson:"fields"`
	}
	err := m.fields.FindOne(ctx, bson.M{"object_id": objectID}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mapErr(err)
	}
	return doc.Fields, nil
}

func (m *Mongo) Taxonomies(ctx context.Context, nodeType string) ([]string, error) {
	var doc struct {
		Names []string `bson:"names"`
	}
	err := m.taxos.FindOne(ctx, bson.M{"type": nodeType}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mapErr(err)
	}
	return doc.Names, nil
}

func (m *Mongo) Terms(ctx context.Context, nodeID int, taxonomy string) ([]*content.Term, error) {
	var doc struct {
		TermIDs []int `bson:"term_ids"`
	}
	err := m.nodeTerms.FindOne(ctx, bson.M{"node_id": nodeID, "taxonomy": taxonomy}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mapErr(err)
	}
	out := make([]*content.Term, 0, len(doc.TermIDs))
	for _, id := range doc.TermIDs {
		t, err := m.TermByID(ctx, id)
		if err != nil {
			if errors.Is(err, content.ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (m *Mongo) TermByID(ctx context.Context, id int) (*content.Term, error) {
	var t content.Term
	if err := m.terms.FindOne(ctx, bson.M{"id": id}).Decode(&t); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (m *Mongo) TermBySlug(ctx context.Context, slug string) (*content.Term, error) {
	var t content.Term
	if err := m.terms.FindOne(ctx, bson.M{"slug": slug}).Decode(&t); err != nil {
		return nil, mapErr(err)
	}
	return &t, nil
}

func (m *Mongo) Media(ctx context.Context, id int) (*content.MediaRecord, error) {
	var r content.MediaRecord
	if err := m.media.FindOne(ctx, bson.M{"id": id}).Decode(&r); err != nil {
		return nil, mapErr(err)
	}
	return &r, nil
}

func (m *Mongo) MediaIDByURL(ctx context.Context, url string) (int, error) {
	var r struct {
		ID int `bson:"id"`
	}
	err := m.media.FindOne(ctx, bson.M{"url": url}).Decode(&r)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return 0, nil
		}
		return 0, mapErr(err)
	}
	return r.ID, nil
}

func (m *Mongo) Menu(ctx context.Context, name string) ([]*content.MenuItem, error) {
	var doc struct {
		Items []*content.MenuItem `bson:"items"`
	}
	if err := m.menus.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		return nil, mapErr(err)
	}
	return doc.Items, nil
}

func (m *Mongo) Option(ctx context.Context, name string) (any, error) {
	var doc struct {
		Value any `bson:"value"`
	}
	err := m.opts.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mapErr(err)
	}
	return doc.Value, nil
}

func (m *Mongo) OptionFields(ctx context.Context, group string) (map[string]content.FieldSchema, error) {
	var doc struct {
		Fields map[string]content.FieldSchema `bson:"fields"`
	}
	err := m.optFields.FindOne(ctx, bson.M{"group": group}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mapErr(err)
	}
	return doc.Fields, nil
}

func (m *Mongo) NodeMeta(ctx context.Context, nodeID int, key string) (any, bool, error) {
	var doc struct {
		Value any `bson:"value"`
	}
	err := m.meta.FindOne(ctx, bson.M{"node_id": nodeID, "key": key}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, false, nil
		}
		return nil, false, mapErr(err)
	}
	return doc.Value, true, nil
}

// RenderBlock has no host renderer on the Mongo path; the raw inner markup is
// already the rendered form in the synced data.
func (m *Mongo) RenderBlock(ctx context.Context, name string, attrs map[string]any, inner string) (string, error) {
	return inner, nil
}

func (m *Mongo) nodeIDsByTermSlug(ctx context.Context, slug string) ([]int, error) {
	var t struct {
		ID int `bson:"id"`
	}
	if err := m.terms.FindOne(ctx, bson.M{"slug": slug}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, mapErr(err)
	}
	cur, err := m.nodeTerms.Find(ctx, bson.M{"term_ids": t.ID})
	if err != nil {
		return nil, mapErr(err)
	}
	defer cur.Close(ctx)
	var ids []int
	for cur.Next(ctx) {
		var doc struct {
			NodeID int `bson:"node_id"`
		}
		if err := cur.Decode(&doc); err != nil {
			return nil, mapErr(err)
		}
		ids = append(ids, doc.NodeID)
	}
	return ids, nil
}

func mapErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return content.ErrNotFound
	}
	return fmt.Errorf("%w: %v", content.ErrUnavailable, err)
}

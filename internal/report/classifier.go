package report

import set "github.com/hashicorp/go-set/v2"

// Well-known columns produced by the event source parsers.
var (
	TimeColumn              = MustColumn("time", "Time")
	DomainSessionTimeColumn = MustColumn("ds_time", "Domain Session Time")
	DKFTimeColumn           = MustColumn("dkf_time", "DKF Time")
	WriteTimeColumn         = MustColumn("ds_write_time", "Domain Session Write Time")
	EventTypeColumn         = MustColumn("event_type", "Event Type")
	UserIDColumn            = MustColumn("user_id", "User ID")
	UsernameColumn          = MustColumn("username", "Username")
	DomainSessionIDColumn   = MustColumn("ds_id", "Domain Session ID")
	ContentColumn           = MustColumn("content", "Content")
	ParticipantIDColumn     = MustColumn("participant_id", "Participant ID")
)

func init() {
	WriteTimeColumn.Enabled = false
}

// DomainSessionColumns returns fresh copies of the columns every domain session
// event carries, in default report order.
func DomainSessionColumns() []*Column {
	cols := []*Column{
		TimeColumn, DomainSessionTimeColumn, DKFTimeColumn, EventTypeColumn,
		UserIDColumn, UsernameColumn, DomainSessionIDColumn, ContentColumn, WriteTimeColumn,
	}
	out := make([]*Column, len(cols))
	for i, c := range cols {
		out[i] = c.Clone()
	}
	return out
}

// ColumnPredicate answers a membership question about a column.
type ColumnPredicate func(*Column) bool

// NameSet matches columns whose internal name is one of names.
func NameSet(names ...string) ColumnPredicate {
	s := set.From(names)
	return func(c *Column) bool {
		return c != nil && s.Contains(c.Name)
	}
}

// Classifier answers the column classification questions the merge engine
// asks. Nil predicates match nothing.
type Classifier struct {
	IsTime            ColumnPredicate
	IsDomainSessionID ColumnPredicate
	IsUserID          ColumnPredicate
	IsParticipantID   ColumnPredicate
}

// DefaultClassifier classifies the well-known columns.
func DefaultClassifier() Classifier {
	return Classifier{
		IsTime: NameSet(TimeColumn.Name, DomainSessionTimeColumn.Name,
			DKFTimeColumn.Name, WriteTimeColumn.Name),
		IsDomainSessionID: NameSet(DomainSessionIDColumn.Name),
		IsUserID:          NameSet(UserIDColumn.Name),
		IsParticipantID:   NameSet(ParticipantIDColumn.Name),
	}
}

func (c Classifier) isTime(col *Column) bool { return c.IsTime != nil && c.IsTime(col) }
func (c Classifier) isDomainSessionID(col *Column) bool { return c.IsDomainSessionID != nil && c.IsDomainSessionID(col) }
func (c Classifier) isUserID(col *Column) bool { return c.IsUserID != nil && c.IsUserID(col) }
func (c Classifier) isParticipantID(col *Column) bool { return c.IsParticipantID != nil && c.IsParticipantID(col) }

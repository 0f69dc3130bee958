package fixture

// configYAML is the root of the fixture file: a set of named module
// definitions plus the top-level instances, mirroring the flat,
// struct-tagged YAML-to-struct idiom core/program.go uses for its own
// YAMLRoot.
type configYAML struct {
	Modules map[string]moduleYAML `yaml:"modules"`
	Top     []instanceRefYAML     `yaml:"top"`
}

type moduleYAML struct {
	Blackbox   bool              `yaml:"blackbox"`
	Ports      []portYAML        `yaml:"ports"`
	Signals    []signalYAML      `yaml:"signals"`
	Instances  []instanceRefYAML `yaml:"instances"`
	Assigns    []assignSpecYAML  `yaml:"assigns"`
	Statements []stmtYAML        `yaml:"statements"`
}

type instanceRefYAML struct {
	Name       string        `yaml:"name"`
	Module     string        `yaml:"module"`
	Parameters []paramYAML   `yaml:"parameters"`
}

type paramYAML struct {
	Name  string `yaml:"name"`
	Value string `yaml:"value"`
}

type portYAML struct {
	Name      string `yaml:"name"`
	Direction string `yaml:"direction"` // in | out | inout
	Width     int    `yaml:"width"`
	Signed    bool   `yaml:"signed"`
	Type      string `yaml:"type"`
}

type signalYAML struct {
	Name   string `yaml:"name"`
	Kind   string `yaml:"kind"` // net | variable | register | memory
	Width  int    `yaml:"width"`
	Signed bool   `yaml:"signed"`
	Type   string `yaml:"type"`
	Rows   int64  `yaml:"rows"`
}

type assignSpecYAML struct {
	Target *exprYAML `yaml:"target"`
	Value  *exprYAML `yaml:"value"`
}

// exprYAML is a flat, kind-discriminated encoding of hdlast.Expr. Every
// field is used by exactly one kind; unused fields are simply absent
// from the document.
type exprYAML struct {
	Kind   string `yaml:"kind"`
	Width  int    `yaml:"width"`
	Signed bool   `yaml:"signed"`
	Type   string `yaml:"type"`

	Text string   `yaml:"text"` // literal
	Name string   `yaml:"name"` // ident
	Path []string `yaml:"path"` // xmr_path

	Op        string    `yaml:"op"` // unary / binary
	Operand   *exprYAML `yaml:"operand"`
	Left      *exprYAML `yaml:"left"`
	Right     *exprYAML `yaml:"right"`
	Cond      *exprYAML `yaml:"cond"`
	WhenTrue  *exprYAML `yaml:"when_true"`
	WhenFalse *exprYAML `yaml:"when_false"`

	Operands []exprYAML `yaml:"operands"` // concat
	Count    int        `yaml:"count"`    // replicate

	Base  *exprYAML `yaml:"base"`
	Hi    int       `yaml:"hi"`
	Lo    int       `yaml:"lo"`
	Index *exprYAML `yaml:"index"`
	Up    bool      `yaml:"up"`
	Field string    `yaml:"field"`

	Args      []exprYAML `yaml:"args"`
	CFunction string     `yaml:"c_function"`
	Pure      bool       `yaml:"pure"`
	Context   bool       `yaml:"context"`
}

// stmtYAML is the flat, kind-discriminated encoding of hdlast.Stmt.
type stmtYAML struct {
	Kind string `yaml:"kind"`

	ProcKind string     `yaml:"proc_kind"` // block
	Body     []stmtYAML `yaml:"body"`

	Cond      *exprYAML `yaml:"cond"` // if / while
	Then      *stmtYAML `yaml:"then"`
	Otherwise *stmtYAML `yaml:"else"`

	Selector          *exprYAML     `yaml:"selector"` // case
	Items             []caseItemYAML `yaml:"items"`
	CoversAllTwoState bool          `yaml:"covers_all_two_state"`

	Init *stmtYAML `yaml:"init"` // for
	Step *stmtYAML `yaml:"step"`
	Loop *stmtYAML `yaml:"loop_body"`

	Pattern string `yaml:"pattern"` // pattern_if

	Events []eventYAML `yaml:"events"` // event_control
	Inner  *stmtYAML   `yaml:"inner"`

	Target        *exprYAML `yaml:"target"` // assign
	Value         *exprYAML `yaml:"value"`
	IsNonBlocking bool      `yaml:"non_blocking"`

	Name         string     `yaml:"name"` // system_task
	Args         []exprYAML `yaml:"args"`
	MemoryTarget string     `yaml:"memory_target"`

	CFunction string `yaml:"c_function"` // dpi_call
	Pure      bool   `yaml:"pure"`
	Context   bool   `yaml:"context"`
}

type caseItemYAML struct {
	Values  []exprYAML `yaml:"values"`
	Pattern string     `yaml:"pattern"` // pattern_case
	Body    *stmtYAML  `yaml:"body"`
}

type eventYAML struct {
	Edge    string    `yaml:"edge"` // none | pos | neg
	Operand *exprYAML `yaml:"operand"`
}

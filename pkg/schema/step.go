package schema

// StepType discriminates the Step union.
type StepType string

const (
	StepCreatePageFromTemplate StepType = "createPageFromTemplate"
	StepCreatePage             StepType = "createPage"
	StepCreateNotebook         StepType = "createNotebook"
	StepCreateFolder           StepType = "createFolder"
	StepMovePages              StepType = "movePages"
	StepArchivePages           StepType = "archivePages"
	StepManageTags             StepType = "manageTags"
	StepSearchAndProcess       StepType = "searchAndProcess"
	StepAISummarize            StepType = "aiSummarize"
	StepCarryForwardItems      StepType = "carryForwardItems"
	StepDelay                  StepType = "delay"
	StepConditional            StepType = "conditional"
	StepSetVariable            StepType = "setVariable"
)

// Step is one unit of work in an action's pipeline. Type selects the
// variant; only the fields belonging to that variant are populated.
// Template placeholders of the form {{name}} are resolved in the
// string fields at execution time.
type Step struct {
	Type StepType `json:"type" jsonschema:"required"`

	// createPageFromTemplate
	TemplateID     string          `json:"templateId,omitempty"`
	NotebookTarget *NotebookTarget `json:"notebookTarget,omitempty"`
	TitleTemplate  string          `json:"titleTemplate,omitempty"`
	FolderName     string          `json:"folderName,omitempty"`
	Tags           []string        `json:"tags,omitempty"`

	// createPage (shares NotebookTarget, TitleTemplate, FolderName, Tags)
	Content string `json:"content,omitempty"`

	// createNotebook
	Name         string `json:"name,omitempty"`
	NotebookType string `json:"notebookType,omitempty"`

	// createFolder (shares Name)
	ParentFolderName string `json:"parentFolderName,omitempty"`

	// movePages
	Source      *PageSelector    `json:"source,omitempty"`
	Destination *PageDestination `json:"destination,omitempty"`

	// manageTags. Selector is shared with archivePages and aiSummarize.
	Selector   *PageSelector `json:"selector,omitempty"`
	AddTags    []string      `json:"addTags,omitempty"`
	RemoveTags []string      `json:"removeTags,omitempty"`

	// searchAndProcess
	Query        string `json:"query,omitempty"`
	ProcessSteps []Step `json:"processSteps,omitempty"`
	Limit        int    `json:"limit,omitempty"`

	// aiSummarize
	OutputTarget *SummaryOutput `json:"outputTarget,omitempty"`
	CustomPrompt string         `json:"customPrompt,omitempty"`

	// carryForwardItems. The destination notebook/section reuses
	// NotebookTarget since movePages already claims "destination";
	// TitleTemplate and TemplateID describe the page created when
	// FindExisting matches nothing.
	SourceSelector     *PageSelector `json:"sourceSelector,omitempty"`
	FindExisting       *PageSelector `json:"findExisting,omitempty"`
	InsertAfterSection string        `json:"insertAfterSection,omitempty"`

	// delay
	Seconds int `json:"seconds,omitempty"`

	// conditional
	Condition *StepCondition `json:"condition,omitempty"`
	ThenSteps []Step         `json:"thenSteps,omitempty"`
	ElseSteps []Step         `json:"elseSteps,omitempty"`

	// setVariable (shares Name)
	Value string `json:"value,omitempty"`
}

// NotebookTargetType discriminates the NotebookTarget union.
type NotebookTargetType string

const (
	TargetCurrentNotebook NotebookTargetType = "currentNotebook"
	TargetNamedNotebook   NotebookTargetType = "namedNotebook"
	TargetNamedSection    NotebookTargetType = "namedSection"
)

// NotebookTarget names where a created or carried-forward page lands.
type NotebookTarget struct {
	Type         NotebookTargetType `json:"type" jsonschema:"required,enum=currentNotebook,enum=namedNotebook,enum=namedSection"`
	NotebookName string             `json:"notebookName,omitempty"`
	SectionName  string             `json:"sectionName,omitempty"`
}

// PageSelector picks the set of pages a step operates on. All set
// fields must match (conjunction); TitlePattern supports * wildcards.
// Archived pages are excluded unless ArchivedOnly is set.
type PageSelector struct {
	Notebook          *NotebookTarget `json:"notebook,omitempty"`
	TitlePattern      string          `json:"titlePattern,omitempty"`
	Tags              []string        `json:"tags,omitempty"`
	WithoutTags       []string        `json:"withoutTags,omitempty"`
	CreatedWithinDays *int            `json:"createdWithinDays,omitempty"`
	UpdatedWithinDays *int            `json:"updatedWithinDays,omitempty"`
	ArchivedOnly      bool            `json:"archivedOnly,omitempty"`
	InFolder          string          `json:"inFolder,omitempty"`
	FromTemplate      string          `json:"fromTemplate,omitempty"`
	MostRecent        bool            `json:"mostRecent,omitempty"`
}

// PageDestination names the folder or notebook pages are moved into.
type PageDestination struct {
	FolderName   string `json:"folderName,omitempty"`
	NotebookName string `json:"notebookName,omitempty"`
}

// SummaryOutputType discriminates the SummaryOutput union.
type SummaryOutputType string

const (
	SummaryAppendToPage  SummaryOutputType = "appendToPage"
	SummaryNewPage       SummaryOutputType = "newPage"
	SummaryIntoVariables SummaryOutputType = "intoVariables"
)

// SummaryOutput names where an aiSummarize result goes. The
// intoVariables variant stores the result in the run's variable set
// (_summary, _keyPoints, _actionItems, _themes) for later steps.
type SummaryOutput struct {
	Type          SummaryOutputType `json:"type" jsonschema:"required,enum=appendToPage,enum=newPage,enum=intoVariables"`
	SectionTitle  string            `json:"sectionTitle,omitempty"`
	TitleTemplate string            `json:"titleTemplate,omitempty"`
	Target        *NotebookTarget   `json:"target,omitempty"`
}

// StepConditionType discriminates the StepCondition union.
type StepConditionType string

const (
	CondPagesExist       StepConditionType = "pagesExist"
	CondPagesNotExist    StepConditionType = "pagesNotExist"
	CondDayOfWeek        StepConditionType = "dayOfWeek"
	CondVariableEquals   StepConditionType = "variableEquals"
	CondVariableNotEmpty StepConditionType = "variableNotEmpty"
	CondExpression       StepConditionType = "expression"
)

// StepCondition guards a conditional step. The expression variant
// evaluates Expr with expr-lang against the current variable set and
// must yield a boolean.
type StepCondition struct {
	Type     StepConditionType `json:"type" jsonschema:"required,enum=pagesExist,enum=pagesNotExist,enum=dayOfWeek,enum=variableEquals,enum=variableNotEmpty,enum=expression"`
	Selector *PageSelector     `json:"selector,omitempty"`
	Days     []string          `json:"days,omitempty"`
	Name     string            `json:"name,omitempty"`
	Value    string            `json:"value,omitempty"`
	Expr     string            `json:"expr,omitempty"`
}

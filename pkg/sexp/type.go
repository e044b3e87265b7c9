package sexp

import "strconv"

// Type represents the type tag of a value as it appears on the wire.
type Type int32

// This block defines all value types.
const (
	NilT         Type = 0
	SymbolT      Type = 1
	ListT        Type = 2
	ClosureT     Type = 3
	EnvT         Type = 4
	PromiseT     Type = 5
	LangT        Type = 6
	SpecialT     Type = 7
	BuiltinT     Type = 8
	CharT        Type = 9
	LogicalT     Type = 10
	IntegerT     Type = 13
	DoubleT      Type = 14
	ComplexT     Type = 15
	CharacterT   Type = 16
	DotsT        Type = 17
	AnyT         Type = 18
	GenericT     Type = 19
	ExpressionT  Type = 20
	BytecodeT    Type = 21
	ExternalPtrT Type = 22
	WeakRefT     Type = 23
	RawT         Type = 24
	S4T          Type = 25
)

// This block defines pseudo types that only exist in the serialized form.
const (
	RefT           Type = 255
	NilValueT      Type = 254
	GlobalEnvT     Type = 253
	UnboundValueT  Type = 252
	MissingArgT    Type = 251
	BaseNamespaceT Type = 250
	NamespaceT     Type = 249
	PackageT       Type = 248
	PersistT       Type = 247
	ClassRefT      Type = 246
	GenericRefT    Type = 245
	BCRepDefT      Type = 244
	BCRepRefT      Type = 243
	EmptyEnvT      Type = 242
	BaseEnvT       Type = 241
	AttrLangT      Type = 240
	AttrListT      Type = 239
	AltrepT        Type = 238
)

var typeNames = map[Type]string{
	NilT:           "NULL",
	SymbolT:        "symbol",
	ListT:          "pairlist",
	ClosureT:       "closure",
	EnvT:           "environment",
	PromiseT:       "promise",
	LangT:          "language",
	SpecialT:       "special",
	BuiltinT:       "builtin",
	CharT:          "char",
	LogicalT:       "logical",
	IntegerT:       "integer",
	DoubleT:        "double",
	ComplexT:       "complex",
	CharacterT:     "character",
	DotsT:          "...",
	AnyT:           "any",
	GenericT:       "list",
	ExpressionT:    "expression",
	BytecodeT:      "bytecode",
	ExternalPtrT:   "externalptr",
	WeakRefT:       "weakref",
	RawT:           "raw",
	S4T:            "S4",
	RefT:           "REFSXP",
	NilValueT:      "NILVALUE_SXP",
	GlobalEnvT:     "GLOBALENV_SXP",
	UnboundValueT:  "UNBOUNDVALUE_SXP",
	MissingArgT:    "MISSINGARG_SXP",
	BaseNamespaceT: "BASENAMESPACE_SXP",
	NamespaceT:     "NAMESPACESXP",
	PackageT:       "PACKAGESXP",
	PersistT:       "PERSISTSXP",
	ClassRefT:      "CLASSREFSXP",
	GenericRefT:    "GENERICREFSXP",
	BCRepDefT:      "BCREPDEF",
	BCRepRefT:      "BCREPREF",
	EmptyEnvT:      "EMPTYENV_SXP",
	BaseEnvT:       "BASEENV_SXP",
	AttrLangT:      "ATTRLANGSXP",
	AttrListT:      "ATTRLISTSXP",
	AltrepT:        "ALTREP_SXP",
}

// String implements fmt.Stringer interface.
func (t Type) String() string {
	if s, ok := typeNames[t]; ok {
		return s
	}
	return "INVALID(" + strconv.Itoa(int(t)) + ")"
}

// IsValid checks if t is a well defined type (either a value type or a
// pseudo type).
func (t Type) IsValid() bool {
	_, ok := typeNames[t]
	return ok
}

// IsCell checks if values of type t are stored as dotted pairs on the wire.
func (t Type) IsCell() bool {
	switch t {
	case ListT, LangT, ClosureT, PromiseT, DotsT:
		return true
	default:
		return false
	}
}

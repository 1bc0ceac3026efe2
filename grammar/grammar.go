package grammar

import (
	"github.com/alecthomas/participle/v2/lexer"
)

type SourceUnit struct {
	Pos   lexer.Position
	Parts []*SourceUnitPart `@@*`
}

type SourceUnitPart struct {
	Pos      lexer.Position
	Pragma   string              `  @Pragma`
	Import   *ImportDirective    `| @@`
	Contract *ContractDefinition `| @@`
	Struct   *StructDefinition   `| @@`
	Enum     *EnumDefinition     `| @@`
	Event    *EventDefinition    `| @@`
	Error    *ErrorDefinition    `| @@`
	Function *FunctionDefinition `| @@`
	Constant *StateVariable      `| @@`
}

type ImportDirective struct {
	Pos     lexer.Position
	Symbols []string `"import" ( "{" @Ident { "," @Ident } "}" "from" )?`
	Path    string   `@String`
	Alias   string   `( "as" @Ident )? ";"`
}

type ContractDefinition struct {
	Pos      lexer.Position
	EndPos   lexer.Position
	Abstract bool                    `@"abstract"?`
	Kind     string                  `@("contract" | "interface" | "library")`
	Name     string                  `@Ident`
	Bases    []*InheritanceSpecifier `( "is" @@ { "," @@ } )?`
	Parts    []*ContractPart         `"{" @@* "}"`
}

type InheritanceSpecifier struct {
	Pos     lexer.Position
	Name    string        `@Ident { @"." @Ident }`
	HasArgs bool          `( @"("`
	Args    []*Expression `  ( @@ { "," @@ } )? ")" )?`
}

type ContractPart struct {
	Pos      lexer.Position
	Using    *UsingDirective     `  @@`
	Struct   *StructDefinition   `| @@`
	Enum     *EnumDefinition     `| @@`
	Event    *EventDefinition    `| @@`
	Error    *ErrorDefinition    `| @@`
	Modifier *ModifierDefinition `| @@`
	Function *FunctionDefinition `| @@`
	Variable *StateVariable      `| @@`
}

type UsingDirective struct {
	Pos      lexer.Position
	Library  string    `"using" @Ident { @"." @Ident } "for"`
	Wildcard bool      `( @"*"`
	Target   *TypeName `| @@ )`
	Global   bool      `@"global"? ";"`
}

type StructDefinition struct {
	Pos    lexer.Position
	Name   string         `"struct" @Ident "{"`
	Fields []*StructField `( @@ ";" )* "}"`
}

type StructField struct {
	Pos  lexer.Position
	Type *TypeName `@@`
	Name string    `@Ident`
}

type EnumDefinition struct {
	Pos    lexer.Position
	Name   string   `"enum" @Ident "{"`
	Values []string `( @Ident { "," @Ident } )? "}"`
}

type EventDefinition struct {
	Pos       lexer.Position
	Name      string            `"event" @Ident "("`
	Params    []*EventParameter `( @@ { "," @@ } )? ")"`
	Anonymous bool              `@"anonymous"? ";"`
}

type EventParameter struct {
	Pos     lexer.Position
	Type    *TypeName `@@`
	Indexed bool      `@"indexed"?`
	Name    string    `@Ident?`
}

type ErrorDefinition struct {
	Pos    lexer.Position
	Name   string       `"error" @Ident "("`
	Params []*Parameter `( @@ { "," @@ } )? ")" ";"`
}

type ModifierDefinition struct {
	Pos    lexer.Position
	Name   string       `"modifier" @Ident`
	Params []*Parameter `( "(" ( @@ { "," @@ } )? ")" )?`
	Attrs  []string     `@( "virtual" | "override" )*`
	Body   *Block       `( ";" | @@ )`
}

type FunctionDefinition struct {
	Pos     lexer.Position
	EndPos  lexer.Position
	Kind    string               `@( "function" | "constructor" | "fallback" | "receive" )`
	Name    string               `@Ident?`
	Params  []*Parameter         `"(" ( @@ { "," @@ } )? ")"`
	Attrs   []*FunctionAttribute `@@*`
	Returns []*Parameter         `( "returns" "(" @@ { "," @@ } ")" )?`
	Body    *Block               `( ";" | @@ )`
}

type FunctionAttribute struct {
	Pos        lexer.Position
	Visibility string              `  @( "public" | "private" | "internal" | "external" )`
	Mutability string              `| @( "pure" | "view" | "payable" | "constant" )`
	Virtual    bool                `| @"virtual"`
	Override   bool                `| @"override"`
	OverrideOf []string            `  ( "(" @Ident { "," @Ident } ")" )?`
	Modifier   *ModifierInvocation `| @@`
}

type ModifierInvocation struct {
	Pos     lexer.Position
	Name    string        `(?! "returns") @Ident { @"." @Ident }`
	HasArgs bool          `( @"("`
	Args    []*Expression `  ( @@ { "," @@ } )? ")" )?`
}

type Parameter struct {
	Pos      lexer.Position
	Type     *TypeName `@@`
	Location string    `@( "memory" | "storage" | "calldata" )?`
	Name     string    `@Ident?`
}

type StateVariable struct {
	Pos   lexer.Position
	Type  *TypeName   `@@`
	Attrs []string    `@( "public" | "private" | "internal" | "constant" | "immutable" | "override" )*`
	Name  string      `@Ident`
	Value *Expression `( "=" @@ )? ";"`
}

type TypeName struct {
	Pos     lexer.Position
	Mapping *MappingType `(  @@`
	Path    string       ` | @Ident { @"." @Ident } )`
	Payable bool         `@"payable"?`
	Dims    []*ArrayDim  `@@*`
}

type MappingType struct {
	Pos       lexer.Position
	Key       *TypeName `"mapping" "(" @@`
	KeyName   string    `@Ident? "=>"`
	Value     *TypeName `@@`
	ValueName string    `@Ident? ")"`
}

type ArrayDim struct {
	Pos  lexer.Position
	Size *Expression `"[" @@? "]"`
}

// Statements

type Block struct {
	Pos        lexer.Position
	EndPos     lexer.Position
	Statements []*Statement `"{" @@* "}"`
}

type Statement struct {
	Pos         lexer.Position
	Block       *Block               `  @@`
	Unchecked   *Block               `| "unchecked" @@`
	If          *IfStatement         `| @@`
	For         *ForStatement        `| @@`
	While       *WhileStatement      `| @@`
	DoWhile     *DoWhileStatement    `| @@`
	Return      *ReturnStatement     `| @@`
	Emit        *EmitStatement       `| @@`
	Revert      *RevertStatement     `| @@`
	Break       bool                 `| @"break" ";"`
	Continue    bool                 `| @"continue" ";"`
	Placeholder bool                 `| @"_" ";"`
	Expr        *Expression          `| @@ ";"`
	TupleDecl   *TupleDeclaration    `| @@`
	VarDecl     *VariableDeclaration `| @@`
}

type IfStatement struct {
	Pos  lexer.Position
	Cond *Expression `"if" "(" @@ ")"`
	Then *Statement  `@@`
	Else *Statement  `( "else" @@ )?`
}

type ForStatement struct {
	Pos   lexer.Position
	Init  *SimpleStatement `"for" "(" ( @@ | ";" )`
	Cond  *Expression      `@@? ";"`
	Post  *Expression      `@@? ")"`
	Body  *Statement       `@@`
}

type SimpleStatement struct {
	Pos     lexer.Position
	Expr    *Expression          `  @@ ";"`
	VarDecl *VariableDeclaration `| @@`
}

type WhileStatement struct {
	Pos  lexer.Position
	Cond *Expression `"while" "(" @@ ")"`
	Body *Statement  `@@`
}

type DoWhileStatement struct {
	Pos  lexer.Position
	Body *Statement  `"do" @@`
	Cond *Expression `"while" "(" @@ ")" ";"`
}

type ReturnStatement struct {
	Pos   lexer.Position
	Value *Expression `"return" @@? ";"`
}

type EmitStatement struct {
	Pos   lexer.Position
	Event *Expression `"emit" @@ ";"`
}

type RevertStatement struct {
	Pos   lexer.Position
	Value *Expression `"revert" @@ ";"`
}

type VariableDeclaration struct {
	Pos      lexer.Position
	Type     *TypeName   `@@`
	Location string      `@( "memory" | "storage" | "calldata" )?`
	Name     string      `@Ident`
	Value    *Expression `( "=" @@ )? ";"`
}

type TupleDeclaration struct {
	Pos   lexer.Position
	Vars  []*TupleVariable `"(" @@ { "," @@ } ")"`
	Value *Expression      `"=" @@ ";"`
}

type TupleVariable struct {
	Pos      lexer.Position
	Type     *TypeName `@@`
	Location string    `@( "memory" | "storage" | "calldata" )?`
	Name     string    `@Ident`
}

// Expressions

type Expression struct {
	Pos    lexer.Position
	EndPos lexer.Position
	Target *Conditional `@@`
	Op     string       `( @( "=" | "+=" | "-=" | "*=" | "/=" | "%=" | "|=" | "&=" | "^=" )`
	Value  *Expression  `  @@ )?`
}

type Conditional struct {
	Pos  lexer.Position
	Cond *Binary     `@@`
	Then *Expression `( "?" @@`
	Else *Expression `  ":" @@ )?`
}

type Binary struct {
	Pos  lexer.Position
	Left *Unary     `@@`
	Rest []*OpUnary `@@*`
}

type OpUnary struct {
	Pos   lexer.Position
	Op    string `@( "||" | "&&" | "==" | "!=" | "<=" | ">=" | "<" | ">" | "|" | "^" | "&" | "<<" | ">>" | "+" | "-" | "**" | "*" | "/" | "%" )`
	Right *Unary `@@`
}

type Unary struct {
	Pos     lexer.Position
	Op      string   `(  @( "!" | "-" | "~" | "++" | "--" | "delete" )`
	Operand *Unary   `   @@ )`
	Postfix *Postfix `| @@`
}

type Postfix struct {
	Pos     lexer.Position
	Primary *Primary  `@@`
	Suffix  []*Suffix `@@*`
}

type Suffix struct {
	Pos    lexer.Position
	Member string       `  "." @Ident`
	Index  *IndexSuffix `| @@`
	Call   *CallSuffix  `| @@`
	Incr   string       `| @( "++" | "--" )`
}

type IndexSuffix struct {
	Pos   lexer.Position
	Open  string      `@"["`
	Index *Expression `@@? "]"`
}

type CallSuffix struct {
	Pos   lexer.Position
	Open  string         `@"("`
	Named []*NamedArg    `( "{" ( @@ { "," @@ } )? "}"`
	Args  []*Expression  `| @@ { "," @@ } )? ")"`
}

type NamedArg struct {
	Pos   lexer.Position
	Name  string      `@Ident ":"`
	Value *Expression `@@`
}

type Primary struct {
	Pos     lexer.Position
	Number  *NumberLiteral `  @@`
	Strings []string       `| @String+`
	Bool    string         `| @( "true" | "false" )`
	TypeOf  *TypeName      `| "type" "(" @@ ")"`
	New     *TypeName      `| "new" @@`
	Tuple   *TupleExpr     `| @@`
	Array   *ArrayLiteral  `| @@`
	Ident   string         `| @Ident`
}

type NumberLiteral struct {
	Pos   lexer.Position
	Value string `@Number`
	Unit  string `@( "wei" | "gwei" | "ether" | "seconds" | "minutes" | "hours" | "days" | "weeks" )?`
}

type TupleExpr struct {
	Pos      lexer.Position
	Open     string        `@"("`
	Elements []*Expression `( @@ { "," @@ } )? ")"`
}

type ArrayLiteral struct {
	Pos      lexer.Position
	Elements []*Expression `"[" @@ { "," @@ } "]"`
}

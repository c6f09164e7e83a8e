package model

// Config はサーバー全体の設定を表す
type Config struct {
	Transport TransportConfig `json:"transport" yaml:"transport"`
	Notes     NotesConfig     `json:"notes" yaml:"notes"`
	Toolkit   ToolkitConfig   `json:"toolkit" yaml:"toolkit"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Paths     PathsConfig     `json:"paths" yaml:"paths"`
}

// TransportConfig はtransportの設定
type TransportConfig struct {
	Default     string   `json:"default" yaml:"default"`                             // "stdio" | "http"
	Host        string   `json:"host" yaml:"host"`                                   // HTTP host
	Port        int      `json:"port" yaml:"port"`                                   // HTTP port
	CORSOrigins []string `json:"corsOrigins,omitempty" yaml:"corsOrigins,omitempty"` // 空ならCORS無効
}

// NotesConfig はノートストアの設定
type NotesConfig struct {
	Backend    string  `json:"backend" yaml:"backend"`                           // "file" | "sqlite" | "memory"
	Dir        string  `json:"dir" yaml:"dir"`                                   // fileバックエンドのルート
	SQLitePath *string `json:"sqlitePath,omitempty" yaml:"sqlitePath,omitempty"` // nullable（省略時は Dir/notes.db）
}

// ToolkitConfig はノート以外の組み込みツールの有効/無効
type ToolkitConfig struct {
	Greeting   bool `json:"greeting" yaml:"greeting"`
	Calculator bool `json:"calculator" yaml:"calculator"`
}

// LoggingConfig はロガー設定（zap.Configに変換される）
type LoggingConfig struct {
	Level       string   `json:"level,omitempty" yaml:"level,omitempty"`             // debug | info | warn | error
	Encoding    string   `json:"encoding,omitempty" yaml:"encoding,omitempty"`       // json | console
	Development bool     `json:"development,omitempty" yaml:"development,omitempty"` // 開発モード
	OutputPaths []string `json:"outputPaths,omitempty" yaml:"outputPaths,omitempty"` // 既定は stderr
}

// PathsConfig はファイルパス設定
type PathsConfig struct {
	ConfigPath string `json:"configPath" yaml:"configPath"` // 設定ファイルパス
}

// Transport定数
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Notes Backend定数
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

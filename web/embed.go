package web

import (
	"embed"
	"io/fs"
)

//go:embed static
var content embed.FS

// StaticFiles 面板静态文件，根目录为 static/
var StaticFiles, _ = fs.Sub(content, "static")

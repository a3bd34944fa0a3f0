package handler

import (
	"github.com/GuahBy/projetISY/internal/app/directory"
	"github.com/GuahBy/projetISY/internal/configs"
)

type AppDeps struct {
	Directory *directory.Directory
	Config    *configs.AppConfig
}

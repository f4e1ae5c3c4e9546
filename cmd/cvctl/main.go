// cvctl 是离线工具：校验/渲染简历数据文件，并清理会话的导出文件。
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/prateekraiger/buildmeCV/internal/compositor"
	"github.com/prateekraiger/buildmeCV/internal/config"
	"github.com/prateekraiger/buildmeCV/internal/database"
	"github.com/prateekraiger/buildmeCV/internal/resume"
	"github.com/prateekraiger/buildmeCV/internal/storage"
	"github.com/prateekraiger/buildmeCV/internal/templates"
	"github.com/prateekraiger/buildmeCV/internal/transfer"
)

const usage = `usage: cvctl <command> [flags]

commands:
  validate  -in resume.json              检查数据文件并输出完成度
  render    -in resume.json [-out f.pdf] [-html] [-template modern|classic]
  purge     -session <id>                删除会话的导出记录与文件
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	var err error
	switch os.Args[1] {
	case "validate":
		err = runValidate(os.Args[2:])
	case "render":
		err = runRender(os.Args[2:])
	case "purge":
		err = runPurge(os.Args[2:])
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("%s: %v", os.Args[1], err)
	}
}

func readResume(path string) (resume.ResumeData, error) {
	if strings.TrimSpace(path) == "" {
		return resume.ResumeData{}, errors.New("missing required flag: -in")
	}
	f, err := os.Open(path)
	if err != nil {
		return resume.ResumeData{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return transfer.NewImporter(0, nil).Import(context.Background(), f)
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	in := fs.String("in", "", "简历数据文件（必填）")
	_ = fs.Parse(args)

	doc, err := readResume(*in)
	if err != nil {
		return err
	}

	for _, check := range resume.Checklist(doc) {
		mark := " "
		if check.Passed {
			mark = "x"
		}
		fmt.Printf("[%s] %s\n", mark, check.Name)
	}
	fmt.Printf("completion: %d%%\n", resume.Completion(doc))

	if err := resume.ValidateForExport(doc); err != nil {
		return err
	}
	fmt.Println("ready for export")
	return nil
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)
	in := fs.String("in", "", "简历数据文件（必填）")
	out := fs.String("out", "", "输出文件（默认按姓名生成）")
	asHTML := fs.Bool("html", false, "输出屏幕预览 HTML 而不是 PDF")
	tpl := fs.String("template", "", "覆盖文件中的模板")
	fontsDir := fs.String("fonts-dir", "assets/fonts", "TTF 字体目录")
	_ = fs.Parse(args)

	doc, err := readResume(*in)
	if err != nil {
		return err
	}
	if *tpl != "" {
		doc.Template = resume.TemplateKey(*tpl)
	}
	registry := templates.Default()

	if *asHTML {
		t := registry.Lookup(doc.Template)
		path := *out
		if path == "" {
			path = resume.FileStem(doc.Personal.Name) + "_Resume.html"
		}
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create %s: %w", path, err)
		}
		defer f.Close()
		if _, err := t.Screen.Page(f, t.Tree(resume.Sanitize(doc))); err != nil {
			return fmt.Errorf("render html: %w", err)
		}
		fmt.Printf("wrote %s (template %s)\n", path, t.Key)
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	art, err := compositor.New(registry, compositor.WithFontsDir(*fontsDir)).Build(ctx, doc)
	if err != nil {
		return err
	}
	path := *out
	if path == "" {
		path = art.Filename
	}
	if err := os.WriteFile(path, art.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("wrote %s (%d page(s), template %s)\n", path, art.Pages, art.Template)
	return nil
}

func runPurge(args []string) error {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)
	sessionID := fs.String("session", "", "会话 ID（必填）")
	dbHost := fs.String("db-host", "", "数据库 Host（可选，默认读 DATABASE_HOST）")
	dbPort := fs.Int("db-port", 0, "数据库 Port（可选，默认读 DATABASE_PORT）")
	_ = fs.Parse(args)

	sid := strings.TrimSpace(*sessionID)
	if sid == "" {
		return errors.New("missing required flag: -session")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *dbHost != "" {
		cfg.Database.Host = *dbHost
	}
	if *dbPort > 0 {
		cfg.Database.Port = *dbPort
	}

	db, err := database.InitDatabase(cfg.Database)
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	storageClient, err := storage.NewClient(cfg.MinIO)
	if err != nil {
		return fmt.Errorf("init storage client: %w", err)
	}

	ctx := context.Background()
	if err := storageClient.DeletePrefix(ctx, storage.ExportPrefix(sid)); err != nil {
		return fmt.Errorf("delete export objects: %w", err)
	}
	res := db.WithContext(ctx).Unscoped().Where("session_id = ?", sid).Delete(&database.ExportRecord{})
	if res.Error != nil {
		return fmt.Errorf("delete export records: %w", res.Error)
	}
	fmt.Printf("purged session %s: %s export record(s)\n", sid, strconv.FormatInt(res.RowsAffected, 10))
	return nil
}

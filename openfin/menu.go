package openfin

import (
	"bytes"
	"fmt"
	"html/template"
	"net/url"

	"github.com/1broseidon/deskbridge/container"
)

// TrayMenuTopicPrefix prefixes the bus topic tray menu entries post to. The
// container UUID completes it.
const TrayMenuTopicPrefix = "TrayIcon_ContextMenuClick_"

const (
	menuItemHeight = 24
	menuWidth      = 200
	menuPadding    = 8
)

var menuTemplates = template.Must(template.New("menu").Parse(`{{define "item"}}<li class="context-menu-item" onclick="fin.desktop.InterApplicationBus.send('{{.AppUUID}}', null, 'TrayIcon_ContextMenuClick_{{.ContainerUUID}}', { id: '{{.ID}}' });this.close()"><span>{{if .Icon}}<img align="absmiddle" class="context-menu-image" src="{{.Icon}}" />{{else}}&nbsp;{{end}}</span>{{.Label}}</li>{{end}}` +
	`<!DOCTYPE html><html><head><meta charset="utf-8"><style>` +
	`body{margin:0;overflow:hidden;font-family:sans-serif;font-size:13px;background:#fff;border:1px solid #aaa}` +
	`.context-menu{list-style:none;margin:0;padding:4px 0}` +
	`.context-menu-item{height:24px;line-height:24px;padding:0 8px;cursor:default;white-space:nowrap}` +
	`.context-menu-item:hover{background:#cde}` +
	`.context-menu-image{width:16px;height:16px;margin-right:6px}` +
	`</style></head><body><ul class="context-menu">{{range .}}{{template "item" .}}{{end}}</ul></body></html>`))

type menuItemView struct {
	AppUUID       string
	ContainerUUID string
	ID            string
	Label         string
	Icon          template.URL
}

func newMenuItemView(item container.MenuItem, appUUID, containerUUID string) menuItemView {
	return menuItemView{
		AppUUID:       appUUID,
		ContainerUUID: containerUUID,
		ID:            item.ID,
		Label:         item.Label,
		// Icons come from the application itself and may be data URLs.
		Icon: template.URL(item.Icon),
	}
}

// RenderMenuItem renders one tray menu entry. Clicking it sends
// {id: item.ID} to appUUID on the container's tray menu topic and closes
// the menu window.
func RenderMenuItem(item container.MenuItem, appUUID, containerUUID string) (string, error) {
	var buf bytes.Buffer
	if err := menuTemplates.ExecuteTemplate(&buf, "item", newMenuItemView(item, appUUID, containerUUID)); err != nil {
		return "", fmt.Errorf("failed to render menu item %q: %w", item.ID, err)
	}
	return buf.String(), nil
}

// RenderMenu renders the full menu document for items.
func RenderMenu(items []container.MenuItem, appUUID, containerUUID string) (string, error) {
	views := make([]menuItemView, 0, len(items))
	for _, item := range items {
		views = append(views, newMenuItemView(item, appUUID, containerUUID))
	}
	var buf bytes.Buffer
	if err := menuTemplates.Execute(&buf, views); err != nil {
		return "", fmt.Errorf("failed to render menu: %w", err)
	}
	return buf.String(), nil
}

// menuDataURL packs a rendered menu into a URL a window can load.
func menuDataURL(html string) string {
	return "data:text/html;charset=utf-8," + url.PathEscape(html)
}

func menuSize(items int) (width, height int) {
	return menuWidth, items*menuItemHeight + menuPadding
}

package handler

import "html/template"

const bookingTemplateName = "booking.html"

var bookingTemplate = template.Must(template.New(bookingTemplateName).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Branding.Product}} - Booking Agent</title>
<style>
body { font-family: Poppins, sans-serif; background: #f8f9fa; color: #2D3436; }
.booking-container { max-width: 700px; margin: 50px auto; background: #fff; border-radius: 12px; padding: 40px; box-shadow: 0 8px 20px rgba(0,0,0,0.15); }
.booking-header { text-align: center; margin-bottom: 30px; }
label { display: block; margin-top: 12px; font-weight: 600; }
input, textarea { width: 100%; padding: 8px; font-size: 1rem; }
.success { color: #1e7e34; } .error { color: #c0392b; }
.custom-footer { text-align: center; margin-top: 40px; font-size: 0.9rem; color: #777; }
</style>
</head>
<body>
<div class="booking-container">
  <div class="booking-header">
    <h1>{{.Branding.PageIcon}} {{.Branding.Product}}</h1>
    <p>{{.Branding.Tagline}}</p>
  </div>
  {{if .Success}}<p class="success" role="status">{{.Success}}</p>{{end}}
  {{if .Error}}<p class="error" role="alert">{{.Error}}</p>{{end}}
  <form method="post" action="/book">
    <label for="name">Your Name</label>
    <input id="name" name="name" maxlength="100" value="{{.Form.Name}}">
    <label for="email">Your Email</label>
    <input id="email" name="email" type="email" maxlength="100" value="{{.Form.Email}}">
    <label for="phone">Your Phone Number</label>
    <input id="phone" name="phone" maxlength="15" value="{{.Form.Phone}}">
    <label for="date">Preferred Appointment Date</label>
    <input id="date" name="date" type="date" value="{{.Form.Date}}">
    <label for="time">Preferred Appointment Time</label>
    <input id="time" name="time" type="time" value="{{.Form.Time}}">
    <label for="message">Additional Information / Message</label>
    <textarea id="message" name="message" rows="6">{{.Form.Message}}</textarea>
    <p><button type="submit">Book Appointment</button></p>
  </form>
</div>
<div class="custom-footer"><hr><p>{{.Branding.Footer}}</p></div>
</body>
</html>
`))

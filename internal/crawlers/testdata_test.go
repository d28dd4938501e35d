package crawlers

// 测试用页面片段

const regionPage = `<html><body>
<form method="post">
<select name="ddparams">
  <option value="null">-- Select Province --</option>
  <option value="">(blank)</option>
  <option value=" 0128 "> Ilocos Norte </option>
  <option value="0129">Ilocos Sur</option>
  <option value="0133"></option>
  <option value="NULL">None</option>
</select>
<input type="submit" name="submit" value="Submit">
</form>
<table class="RepT" id="treportA">
  <tr><th>Facility</th><th>Doctors</th><th>Nurses</th></tr>
  <tr><td> Adams RHU </td><td>1</td><td>3</td></tr>
  <tr><td>Bangui RHU</td><td>2</td></tr>
</table>
<table class="RepT" id="treportB">
  <tr><th>Ownership</th><th>Count</th></tr>
  <tr><td>Government</td><td>10</td></tr>
</table>
<table class="RepT" id="tsummary">
  <tr><th>Total</th></tr>
  <tr><td>13</td></tr>
</table>
<table id="layout">
  <tr><td>only one row</td></tr>
</table>
</body></html>`

const emptyPage = `<html><body><p>No data available</p></body></html>`
